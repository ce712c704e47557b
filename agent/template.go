package agent

import (
	"encoding/json"
	"strings"
)

// FinalAnswerAction is the action value that terminates the loop.
const FinalAnswerAction = "Final Answer"

// reactTemplate is the system prompt skeleton. Placeholders are substituted
// with a plain replacer because the prompt itself is full of literal JSON
// braces.
const reactTemplate = `You are a helpful document retrieval assistant designed to find relevant document references. Your goal is to find and return references to documents that best match the user's query.

# Instructions

You have access to the following tools:
{{tools}}

Your outputs should follow this JSON format:
` + "```json" + `
{
    "question": "the input question to answer",
    "thought": "your reasoning about the current step",
    "action": "$TOOL_NAME",
    "action_input": $TOOL_ARGS
}
` + "```" + `

Valid action values are: "Final Answer" or {{tool_names}}

The observation from the action will be provided to you in this format:
` + "```json" + `
{
    "observation": "result from the action"
}
` + "```" + `

You should continue this thought process until you reach a final answer.

Tool usage examples:

For single argument tools:
` + "```json" + `
{
    "thought": "I need to search for documents",
    "action": "search_documents",
    "action_input": {
        "query": "search terms"
    }
}
` + "```" + `

For multi-argument tools:
` + "```json" + `
{
    "thought": "I'll search within a date range",
    "action": "get_documents_by_range",
    "action_input": {
        "start_date": "2024-01-01",
        "end_date": "2024-03-01"
    }
}
` + "```" + `

IMPORTANT: When providing action_input values, always use direct values without any metadata or type information.

Remember to:
- Always provide all required arguments for a tool
- Use proper JSON formatting with double quotes around keys and string values
- Keep the action and action_input structure consistent

# Paginated Tool Usage

When a tool returns a paginated response, it will include:
- results: List of documents for the current page
- has_next_page: Boolean indicating if there are more pages
- page_number: Current page number (0-based)

After each paginated response you MUST analyze the observation in your next thought, keep track of the relevant document URIs found so far, and decide whether more relevant documents could remain. Do not request the next page if has_next_page is false or you very likely have all the documents needed to answer the query. When returning the final answer, include the document URIs from all pages you have seen.

To request paginated results, include the optional "page" parameter in your action_input (starting from 0, defaults to 0).

# Output Instructions
{{format_instructions}}

Begin! Remember to:
1. Use the JSON format for all interactions
2. Follow the exact schema from the format instructions
3. Ensure all JSON is valid (no comments or trailing commas)
4. Use "document contains X" format for explanations
5. Use the correct response_code
6. Try alternative approaches before returning missing capability errors
`

// renderSystemPrompt fills the template with the tool catalogue and the
// output format instructions.
func renderSystemPrompt(toolDescriptions []string, toolNames []string) string {
	quoted := make([]string, len(toolNames))
	for i, name := range toolNames {
		quoted[i] = `"` + name + `"`
	}

	return strings.NewReplacer(
		"{{tools}}", strings.Join(toolDescriptions, "\n"),
		"{{tool_names}}", strings.Join(quoted, ", "),
		"{{format_instructions}}", FormatInstructions(),
	).Replace(reactTemplate)
}

type exampleReference struct {
	URI         string `json:"uri"`
	Explanation string `json:"explanation"`
}

type exampleAnswer struct {
	Question    string `json:"question"`
	Thought     string `json:"thought"`
	Action      string `json:"action"`
	ActionInput struct {
		ResponseCode string             `json:"response_code"`
		References   []exampleReference `json:"references"`
		ErrorMessage string             `json:"error_message,omitempty"`
	} `json:"action_input"`
}

func renderExample(question, thought, code, errorMessage string, refs ...exampleReference) string {
	ex := exampleAnswer{Question: question, Thought: thought, Action: FinalAnswerAction}
	ex.ActionInput.ResponseCode = code
	ex.ActionInput.ErrorMessage = errorMessage

	ex.ActionInput.References = refs
	if refs == nil {
		ex.ActionInput.References = []exampleReference{}
	}

	out, _ := json.MarshalIndent(ex, "", "    ")

	return string(out)
}

// FormatInstructions renders the final-answer format section of the system
// prompt, including worked examples for the success, not-found and internal
// error cases.
func FormatInstructions() string {
	base := renderExample(
		"example query",
		"I have found relevant documents",
		"success",
		"",
		exampleReference{URI: "root/DocumentType:doc_id@1", Explanation: "explanation of why this document is relevant"},
	)

	success := renderExample(
		"Find documents about AI and machine learning",
		"I found documents containing the requested terms",
		"success",
		"",
		exampleReference{URI: "root/Email:doc1@1", Explanation: "email contains AI and machine learning"},
		exampleReference{URI: "root/ChatMessage:doc2@1", Explanation: "chat message contains machine learning examples"},
	)

	notFound := renderExample(
		"Find documents about quantum computing",
		"No documents were found matching the query",
		"error_no_documents_found",
		"No documents containing quantum computing were found",
	)

	internalError := renderExample(
		"Find documents about X",
		"The search operation failed",
		"error_internal",
		"Failed to execute search",
	)

	var sb strings.Builder

	sb.WriteString("Your final answer should follow this format:\n")
	sb.WriteString(base)
	sb.WriteString(`

Follow these guidelines:
1. Return document URIs and explanations, not complete documents
2. Return all relevant document references, not just one
3. Use "success" response_code when documents are found
4. Use "error_no_documents_found" when no matches exist
5. Use "error_internal" for any other errors

Example responses:

For successful retrieval with multiple document types:
`)
	sb.WriteString(success)
	sb.WriteString("\n\nFor no documents found:\n")
	sb.WriteString(notFound)
	sb.WriteString("\n\nFor internal errors:\n")
	sb.WriteString(internalError)
	sb.WriteString("\n")

	return sb.String()
}
