package services

import (
	"context"
	"strings"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/fallback"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/application/prompts"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

const (
	maxChatHistory   = 10
	maxMessageLength = 2000
)

// ChatService answers patient messages in plain language.
type ChatService struct {
	pipeline *Pipeline
}

// NewChatService creates a new chat service
func NewChatService(pipeline *Pipeline) *ChatService {
	return &ChatService{pipeline: pipeline}
}

// Reply answers message in the context of the patient record and the most
// recent turns of history.
func (s *ChatService) Reply(ctx context.Context, patientID, message string, history []entities.ChatMessage) (*entities.ChatReply, error) {
	if patientID == "" {
		return nil, apperrors.NewValidationError("patient id is required")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required")
	}
	if len(message) > maxMessageLength {
		return nil, apperrors.NewValidationError("message is too long")
	}

	doc := s.pipeline.builder.ForPatient(ctx, patientID)
	text, err := s.pipeline.invokeText(ctx, request{
		feature:   entities.FeatureChat,
		patientID: patientID,
		context:   doc.String(),
		extras: map[string]string{
			prompts.ExtraHistory: formatHistory(history),
			prompts.ExtraMessage: message,
		},
	})
	if err != nil {
		return fallback.ChatReply(s.pipeline.degrade(ctx, entities.FeatureChat, err)), nil
	}
	return &entities.ChatReply{Reply: text}, nil
}

func formatHistory(history []entities.ChatMessage) string {
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "assistant" {
			role = "patient"
		}
		lines = append(lines, role+": "+content)
	}
	return strings.Join(lines, "\n")
}
