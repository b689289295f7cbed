package service

import "qutebrowser-agent/internal/domain/entity"

// BuildConversation assembles the turns sent to the planner: one user turn
// with the latest screenshot (if any) and the live instruction, followed by
// every assistant message replayed as a model turn. Historical user
// messages are not replayed and older images are not sent.
func BuildConversation(session *entity.Session, instruction string) []entity.Turn {
	parts := make([]entity.Part, 0, 2)
	if image, ok := session.LatestImage(); ok {
		parts = append(parts, entity.ImagePart(entity.MimeTypePNG, image))
	}
	parts = append(parts, entity.TextPart(instruction))

	turns := []entity.Turn{{Role: entity.TurnRoleUser, Parts: parts}}

	for _, msg := range session.Messages {
		if msg.Role != entity.RoleAssistant {
			continue
		}
		turns = append(turns, entity.Turn{
			Role:  entity.TurnRoleModel,
			Parts: []entity.Part{entity.TextPart(msg.Content)},
		})
	}

	return turns
}
