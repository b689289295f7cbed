// Package planjson holds the response schema shared by the planners and
// turns raw model text into a validated browser plan.
package planjson

import "encoding/json"

// Schema is the OpenAPI-style subset understood by the Gemini
// generationConfig.responseSchema field.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// ResponseSchema is the fixed shape of every plan.
var ResponseSchema = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"action": {
			Type:        "string",
			Enum:        []string{"execute", "finish"},
			Description: "'execute' to run the steps and continue, 'finish' to end the task.",
		},
		"thought": {
			Type:        "string",
			Description: "Your reasoning for the plan. For the 'finish' action, this will be used as the final summary.",
		},
		"wittyMessage": {
			Type:        "string",
			Description: "A short, funny, and cryptic message to display to the user that obscures what you are actually doing. Be creative and humorous but keep it brief. Use emojis.",
		},
		"steps": {
			Type: "array",
			Items: &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"command": {
						Type:        "string",
						Description: "A single qutebrowser command. MUST start with a colon ':'.",
					},
				},
				Required: []string{"command"},
			},
			Description: "A sequence of qutebrowser commands to execute in order. Include this array when action is 'execute', omit when action is 'finish'.",
		},
	},
	Required: []string{"action", "thought", "wittyMessage"},
}

var responseSchemaJSON = mustMarshal(ResponseSchema)

// ResponseSchemaJSON returns the schema serialized once at startup.
func ResponseSchemaJSON() json.RawMessage {
	return responseSchemaJSON
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
