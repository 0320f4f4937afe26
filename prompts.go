package medichat

import (
	"bytes"
	"fmt"

	"github.com/w-h-a/medichat/store"
)

const systemPreamble = "You are a medical assistant specializing in blood test analysis. Use the context below and the patient's blood test results to answer the question. If the answer is not in the material, say so honestly and recommend consulting a healthcare professional."

const analysisInstruction = "Provide a health analysis of my blood test results. Compare the most recent results with the two previous result sets, highlight any values outside normal ranges and any significant trends, and recommend consulting a healthcare professional for a full interpretation."

const noContext = "No relevant context found."

const noResults = "No blood test results available."

func (c *Chatbot) buildPrompt(chunks []store.Record, question string) string {
	var sb bytes.Buffer

	sb.WriteString(systemPreamble)

	sb.WriteString("\n\nContext from database:\n")
	if len(chunks) == 0 {
		sb.WriteString(noContext)
		sb.WriteString("\n")
	} else {
		for i, chunk := range chunks {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, chunk.Content))
		}
	}

	sb.WriteString("\nPatient's Blood Test Results:\n")
	summary := c.results()
	if len(summary) == 0 {
		summary = noResults
	}
	sb.WriteString(summary)
	sb.WriteString("\n")

	sb.WriteString("\nConversation History:\n")
	sb.WriteString(c.history.Render())
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("\nHuman: %s\nAssistant:", question))

	return sb.String()
}
