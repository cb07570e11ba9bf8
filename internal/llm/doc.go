// Package llm is the resilient client for the upstream model API.
//
// A single HTTP transport performs one POST to the messages endpoint. All
// other concerns are Middleware values composed around it with Chain:
//
//	WithTracing -> WithCache -> WithRetry -> WithRateLimit -> WithInstrumentation -> transport
//
// Every failure leaving the package is an *Error whose Kind comes from the
// Classifier chain. Only Network and Timeout failures are retried; any
// failure carrying an HTTP response is raised on first occurrence.
//
// Successful payloads are checked by Validate before they are returned or
// cached. The cache is bounded by size and TTL; reads never refresh an
// entry, so the oldest-inserted entry is evicted first.
package llm
