package conversation

import "fmt"

const analysisSystemPrompt = `You are an assistant that analyzes conversation context for project documentation.
Read the user's latest message and identify:
1. The documentation phase it refers to (DVP, DRS, DAS, DADI)
2. Specific documentation fields mentioned and their values
3. Suggestions for the next questions
4. Validations that may be needed

Respond ONLY with a JSON object of this form:
{
  "detectedPhase": "DVP" | "DRS" | "DAS" | "DADI",
  "detectedFields": [{"phase": "<phase>", "field": "<field name>", "value": <value>, "confidence": <0.0-1.0>}],
  "suggestions": [{"type": "field_update" | "next_question" | "validation", "description": "<text>", "confidence": <0.0-1.0>}],
  "nextQuestion": "<optional follow-up question>"
}`

const responseSystemPrompt = `You are an assistant that helps teams document their software projects.
Using the context analysis provided and the conversation history:
1. Write a natural, helpful reply
2. Ask relevant questions to gather more information
3. Suggest next steps when appropriate
4. Keep a professional but friendly tone

Reply in plain prose. Never reply with JSON.`

func welcomeSystemPrompt(phase Phase) string {
	return fmt.Sprintf(`You are an assistant that helps teams document their software projects.
A new documentation session is starting for the %s (%s) phase.
Greet the user briefly, explain that you will guide them through the %s document, and ask one opening question.
Reply in plain prose.`, phase.Title(), phase, phase.Title())
}

func welcomeUserPrompt(projectID string, phase Phase) string {
	return fmt.Sprintf("Start the %s documentation for project %q.", phase.Title(), projectID)
}

// analysisTurn is the assistant turn that carries the analysis into the
// response call.
func analysisTurn(serialized string) string {
	return "Context analysis: " + serialized
}
