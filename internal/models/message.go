package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FileKind string

const (
	FileImage FileKind = "image"
	FileVideo FileKind = "video"
	FileOther FileKind = "file"
)

type Attachment struct {
	URL          string   `json:"url"`
	FileType     FileKind `json:"fileType"`
	OriginalName string   `json:"originalName"`
}

// Message is immutable once stored.
type Message struct {
	ID             string `gorm:"primaryKey;size:64"`
	ConversationID string `gorm:"size:64;index:idx_msg_conv_created,priority:1;not null"`
	SenderID       string `gorm:"size:64;not null"`
	Text           string
	Attachments    []Attachment `gorm:"serializer:json"`
	Read           bool         `gorm:"default:false"`
	CreatedAt      time.Time    `gorm:"index:idx_msg_conv_created,priority:2"`
}

// HasContent reports whether m carries non-blank text or at least one
// attachment.
func (m *Message) HasContent() bool {
	return strings.TrimSpace(m.Text) != "" || len(m.Attachments) > 0
}

// Preview is the text stored on the parent conversation.
func (m *Message) Preview() string {
	if strings.TrimSpace(m.Text) != "" {
		return m.Text
	}
	return "Sent an attachment"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// MessageView is the wire form of a message with the sender resolved.
type MessageView struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversationId"`
	Sender         UserSummary  `json:"sender"`
	Text           string       `json:"text"`
	Attachments    []Attachment `json:"attachments"`
	Read           bool         `json:"read"`
	CreatedAt      time.Time    `json:"createdAt"`
}

func (m *Message) View(sender UserSummary) MessageView {
	att := m.Attachments
	if att == nil {
		att = []Attachment{}
	}
	return MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         sender,
		Text:           m.Text,
		Attachments:    att,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
}
