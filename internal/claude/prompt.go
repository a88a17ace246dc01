package claude

import (
	"strings"
)

// MaxContextRunes caps the page context forwarded with a question
const MaxContextRunes = 2000

var greetings = []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "greetings"}

var contextKeywords = []string{
	"dashboard", "page", "project", "issue", "sprint", "status", "metric",
	"progress", "show", "tell", "explain", "analyze", "summary", "overview",
	"current", "how many", "what are", "which", "list",
}

// NeedsContext reports whether a question is about the project data on the
// page. Greetings and questions of two words or fewer never are.
func NeedsContext(question string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	words := strings.Fields(q)
	if len(words) <= 2 {
		return false
	}

	for _, g := range greetings {
		if strings.HasPrefix(q, g) && len(words) <= 3 {
			return false
		}
	}
	for _, kw := range contextKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// BuildPrompt frames question with the page context and conversation history
// when the question needs them; otherwise the question is sent as is.
func BuildPrompt(question, pageContext, contextHistory string) string {
	if !NeedsContext(question) || (pageContext == "" && contextHistory == "") {
		return question
	}

	parts := []string{
		"Question: " + question + "\n\n",
		"Answer using the following project data. Present the answer in a clear, structured format with key metrics first, then insights. Do not mention 'based on' or 'dashboard information' - just provide the answer directly:\n\n",
	}
	if pageContext != "" {
		if r := []rune(pageContext); len(r) > MaxContextRunes {
			pageContext = string(r[:MaxContextRunes]) + "... [context truncated]"
		}
		parts = append(parts, pageContext)
	}
	if contextHistory != "" {
		if pageContext != "" {
			parts = append(parts, "\n")
		}
		parts = append(parts, contextHistory)
	}
	return strings.Join(parts, "\n")
}
