package entity

type TurnRole string

const (
	TurnRoleUser  TurnRole = "user"
	TurnRoleModel TurnRole = "model"
)

const MimeTypePNG = "image/png"

type InlineData struct {
	MimeType string
	Data     string
}

// Part is either a text part or an inline image part.
type Part struct {
	Text       string
	InlineData *InlineData
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func ImagePart(mimeType, data string) Part {
	return Part{InlineData: &InlineData{MimeType: mimeType, Data: data}}
}

func (p Part) IsImage() bool {
	return p.InlineData != nil
}

type Turn struct {
	Role  TurnRole
	Parts []Part
}
