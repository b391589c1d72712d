package openai

import (
	"github.com/poiesic/minirag/ai"
	"github.com/tmc/langchaingo/prompts"
)

const answerPromptTemplate = `You are a careful assistant that answers questions using only the numbered context passages below.

Rules:
- Use ONLY information found in the context. Do not rely on prior knowledge.
- If the context does not contain the answer, reply exactly: "` + ai.FallbackAnswer + `"
- Cite every sentence that uses the context with the passage number in square brackets, placed at the end of the sentence, for example: "Paris is the capital of France [1]."
- Only cite passage numbers that appear in the context.

Context:
{{.context}}

Question: {{.question}}

Answer:`

func newAnswerPrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(answerPromptTemplate, []string{"context", "question"})
}

// buildAnswerPrompt substitutes the question and the assembled context into
// the answer template.
func buildAnswerPrompt(question, context string) (string, error) {
	return newAnswerPrompt().Format(map[string]any{
		"context":  context,
		"question": question,
	})
}
