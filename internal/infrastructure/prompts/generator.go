package prompts

import (
	"bytes"
	"strings"
	"text/template"
)

type SystemPromptData struct {
	Prefix     string
	ExtraRules []string
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

func GenerateSystemPrompt(baseTemplate string, data SystemPromptData) (string, error) {
	rules := make([]string, 0, len(data.ExtraRules))
	for _, rule := range data.ExtraRules {
		if rule = strings.TrimSpace(rule); rule != "" {
			rules = append(rules, rule)
		}
	}
	data.ExtraRules = rules

	tmpl, err := template.New("system").Funcs(funcs).Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
