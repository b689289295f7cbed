package gemini

import (
	"encoding/json"

	"qutebrowser-agent/internal/domain/entity"
)

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       *string     `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type candidate struct {
	Content content `json:"content"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

func textPart(text string) part {
	return part{Text: &text}
}

func convertTurns(turns []entity.Turn) []content {
	result := make([]content, 0, len(turns))
	for _, turn := range turns {
		c := content{
			Role:  string(turn.Role),
			Parts: make([]part, 0, len(turn.Parts)),
		}
		for _, p := range turn.Parts {
			if p.IsImage() {
				c.Parts = append(c.Parts, part{InlineData: &inlineData{
					MimeType: p.InlineData.MimeType,
					Data:     p.InlineData.Data,
				}})
				continue
			}
			c.Parts = append(c.Parts, textPart(p.Text))
		}
		result = append(result, c)
	}
	return result
}
