package ai

import (
	"fmt"

	"github.com/velasier/paperbase/internal/models"
)

const jsonSystemPrompt = "You are a helpful assistant designed to output JSON."

const summaryPrompt = `Please analyze the following academic paper abstract and provide a structured summary in JSON format.
The JSON object must contain these keys:
- "simplified_summary_zh": A summary in simple Chinese, about 300 characters.
- "keywords_en": An array of 3 to 5 most relevant English keywords.
- "innovation_rating": A rating from 1 to 5 (integer) on the potential novelty.
Abstract:
`

const detailedPrompt = `Please provide a detailed analysis of the following academic paper abstract in JSON format.
The JSON object must contain these keys:
- "background": A brief introduction to the research area and the problem it addresses.
- "methodology": A description of the methods or techniques used in the paper.
- "key_innovations": A bullet-point list (array of strings) of the core innovations or contributions.
- "potential_impact": A discussion on the potential impact or future implications of this research.
Abstract:
`

const qnaPromptTemplate = `Based on the following context, please answer the user's question.
Context:
---
%s
---
Question: %s
Answer:`

// apologyAnswer is returned whenever the Q&A call fails for any reason.
const apologyAnswer = "Sorry, I couldn't process the answer for your question."

func promptForKind(kind models.AnalysisKind) string {
	if kind == models.AnalysisDetailed {
		return detailedPrompt
	}
	return summaryPrompt
}

func buildQnaPrompt(contextText, question string) string {
	return fmt.Sprintf(qnaPromptTemplate, contextText, question)
}
