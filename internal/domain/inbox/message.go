// Package inbox holds the contact messages visitors send to a team.
package inbox

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Message is a contact request addressed to a team. Messages are immutable
// once received.
type Message struct {
	shared.BaseEntity
	TeamID    uuid.UUID `gorm:"type:uuid;not null;index" json:"team_id"`
	FirstName string    `gorm:"size:100" json:"first_name"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	Email     string    `gorm:"size:200" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Address   string    `gorm:"size:500" json:"address"`
	Text      string    `gorm:"type:text;not null" json:"text"`
}

// TableName returns the table name for GORM
func (Message) TableName() string {
	return "messages"
}

// MessageInput is the public submission payload
type MessageInput struct {
	TeamID    uuid.UUID `json:"team_id" binding:"required"`
	FirstName string    `json:"first_name" binding:"max=100"`
	LastName  string    `json:"last_name" binding:"max=100"`
	Email     string    `json:"email" binding:"omitempty,email,max=200"`
	Phone     string    `json:"phone" binding:"max=50"`
	Address   string    `json:"address" binding:"max=500"`
	Text      string    `json:"text" binding:"required,max=10000"`
}

// NewMessage creates a message for the team named in the payload
func NewMessage(in MessageInput) (*Message, error) {
	if in.TeamID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TEAM", "Message must be addressed to a team")
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message text cannot be empty")
	}
	return &Message{
		BaseEntity: shared.NewBaseEntity(),
		TeamID:     in.TeamID,
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Address:    strings.TrimSpace(in.Address),
		Text:       text,
	}, nil
}

// Sender returns a printable name for the author
func (m *Message) Sender() string {
	name := strings.TrimSpace(m.FirstName + " " + m.LastName)
	if name == "" {
		return m.Email
	}
	return name
}
