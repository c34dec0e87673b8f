package llm

import (
	"fmt"
	"strings"
)

// SummaryPrompt wraps an article excerpt in the instruction sent to chat
// models.
func SummaryPrompt(text string) string {
	return fmt.Sprintf(`Summarize the following excerpt from a financial news article in a few sentences.
Keep company names, tickers and figures exactly as written. Reply with the summary only.

---
%s`, text)
}

// StripCodeFence removes a surrounding markdown code block from an LLM reply.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	endIdx := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	if endIdx <= 1 {
		return strings.TrimSpace(strings.Trim(text, "`"))
	}
	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}
