package thinking

import "strings"

// PromptTemplate feeds a model's thinking back together with the question.
// {thinking_tokens} and {question} are substituted by FormatPrompt.
const PromptTemplate = `
Thought process: {thinking_tokens} </think>
Question: {question}
Answer:
`

// FormatPrompt fills PromptTemplate. Substitution is a single pass, so
// placeholder text inside thinking or question is left untouched.
func FormatPrompt(thinking, question string) string {
	return strings.NewReplacer(
		"{thinking_tokens}", thinking,
		"{question}", question,
	).Replace(PromptTemplate)
}
