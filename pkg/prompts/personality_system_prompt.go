package prompts

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed templates/personality_system_prompt.tmpl
var personalitySystemPromptTemplate string

type PersonalitySystemPrompt struct {
	UserName string
}

func BuildPersonalitySystemPrompt(data PersonalitySystemPrompt) (string, error) {
	tmpl, err := template.New("personality_system").Parse(personalitySystemPromptTemplate)
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
