package prompts

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed templates/session_title_prompt.tmpl
var sessionTitlePromptTemplate string

type SessionTitlePrompt struct {
	Transcript string
}

func BuildSessionTitlePrompt(data SessionTitlePrompt) (string, error) {
	tmpl, err := template.New("session_title").Parse(sessionTitlePromptTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
