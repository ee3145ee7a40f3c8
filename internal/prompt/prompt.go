// Package prompt renders the LLM prompts used by the question pipeline.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

const (
	ClarifySemantic = "clarify_semantic.txt"
	ClarifyKeyword  = "clarify_keyword.txt"
	Answer          = "answer.txt"
	System          = "system.txt"
)

// QueryData feeds the clarification templates.
type QueryData struct {
	Query string
}

// AnswerData feeds the answer template. Empty contexts are left out.
type AnswerData struct {
	Query           string
	VectorContext   string
	ExternalContext string
}

var templates = template.Must(template.New("prompt").ParseFS(promptTemplates, "templates/*.txt"))

// Render executes the named template with data.
func Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// SystemPrompt returns the persona used to seed conversations. A non-empty
// path overrides the built-in text.
func SystemPrompt(path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read system prompt: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	data, err := promptTemplates.ReadFile("templates/" + System)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
