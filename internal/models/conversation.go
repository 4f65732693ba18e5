package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is a two-party chat thread. PairKey is unique, so at most one
// conversation exists per unordered pair of participants.
type Conversation struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	ParticipantA  string    `gorm:"size:64;index;not null" json:"-"`
	ParticipantB  string    `gorm:"size:64;index;not null" json:"-"`
	PairKey       string    `gorm:"size:130;uniqueIndex;not null" json:"-"`
	LastMessage   string    `json:"lastMessage"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `gorm:"index" json:"updatedAt"`
}

// NewConversation builds a conversation between a and b with participants
// stored in sorted order.
func NewConversation(a, b string) *Conversation {
	p := []string{a, b}
	sort.Strings(p)
	return &Conversation{ParticipantA: p[0], ParticipantB: p[1], PairKey: PairKey(a, b)}
}

// PairKey normalises an unordered participant pair.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

func (c *Conversation) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.ParticipantA == userID || c.ParticipantB == userID)
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(c.ID) == "" {
		c.ID = uuid.NewString()
	}
	if c.PairKey == "" {
		c.PairKey = PairKey(c.ParticipantA, c.ParticipantB)
	}
	return nil
}
