// Package conversation orchestrates documentation interviews driven by the
// upstream model.
//
// A conversation is keyed by project id and lives in a Store for the process
// lifetime. StartConversation asks the model for a welcome turn and registers
// the conversation only if that succeeds.
//
// ProcessMessage runs two model calls per user turn:
//
//  1. Analyze: the model returns a JSON ContextAnalysis (detected phase,
//     detected fields with confidence, suggestions, next question). A reply
//     that is not valid JSON or has the wrong shape is replaced by a default
//     analysis and the turn continues.
//  2. Respond: the model writes a prose reply, given the history, the user
//     message and the serialized analysis. A failed call, an empty reply, or a
//     reply that starts with '{' or '[' fails the turn.
//
// Fields detected with confidence above CompletionThreshold are moved to
// the completed list. The user and assistant turns are committed together;
// a failed turn leaves the conversation untouched.
//
// # Concurrency
//
// Store is safe for concurrent use and each commit is atomic. Concurrent
// ProcessMessage calls for the same project are not serialized: both work
// from the same history snapshot and both commit their turns.
package conversation
