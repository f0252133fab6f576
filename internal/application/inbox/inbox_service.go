// Package inbox receives public contact messages and exposes the inbox of
// a team.
package inbox

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/inbox"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"github.com/invoicer/backend/internal/resource"
	"go.uber.org/zap"
)

// ErrUnknownTeam is returned when a message names a team that does not exist
var ErrUnknownTeam = shared.NewDomainError("UNKNOWN_TEAM", "Message is addressed to an unknown team")

// NewMessageResource declares the inbox of a team. Messages are created by
// the public submission route only.
func NewMessageResource(teams resource.Owner, store resource.Store[inbox.Message]) *resource.Descriptor[inbox.Message] {
	return resource.Define("messages", store, inbox.NewMessage).
		ChildOf(resource.Parent[inbox.Message]{
			Owner:       teams,
			TenantOwned: true,
			Column:      "team_id",
			Get:         func(m *inbox.Message) uuid.UUID { return m.TeamID },
			Set:         func(m *inbox.Message, id uuid.UUID) { m.TeamID = id },
		}).
		Sortable("email", "last_name").
		Expose(resource.OpList | resource.OpRead | resource.OpDelete)
}

// Service accepts contact messages
type Service struct {
	teams    tenancy.TeamRepository
	messages resource.Store[inbox.Message]
	logger   *zap.Logger
}

// NewService creates a new inbox service
func NewService(teams tenancy.TeamRepository, messages resource.Store[inbox.Message], logger *zap.Logger) *Service {
	return &Service{teams: teams, messages: messages, logger: logger}
}

// Submit stores a message for the team named in the payload
func (s *Service) Submit(ctx context.Context, in inbox.MessageInput) (*inbox.Message, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "messages", "submit", telemetry.Tenant(in.TeamID))
	defer span.End()

	msg, err := inbox.NewMessage(in)
	if err != nil {
		return nil, err
	}

	if _, err := s.teams.FindByID(ctx, in.TeamID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrUnknownTeam
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Message received",
		zap.String("team_id", msg.TeamID.String()),
		zap.String("message_id", msg.ID.String()),
	)
	return msg, nil
}
