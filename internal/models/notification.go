package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotifyProjectInvite  NotificationType = "project_invite"
	NotifyProjectRequest NotificationType = "project_request"
	NotifyTaskAssigned   NotificationType = "task_assigned"
	NotifyReviewReceived NotificationType = "review_received"
	NotifySystem         NotificationType = "system"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotifyProjectInvite, NotifyProjectRequest, NotifyTaskAssigned, NotifyReviewReceived, NotifySystem:
		return true
	}
	return false
}

type Notification struct {
	ID          string           `gorm:"primaryKey;size:64"`
	RecipientID string           `gorm:"size:64;index:idx_notif_recipient_created,priority:1;not null"`
	SenderID    string           `gorm:"size:64"`
	Type        NotificationType `gorm:"size:32;not null"`
	Message     string           `gorm:"not null"`
	Link        string
	Read        bool      `gorm:"default:false;index"`
	CreatedAt   time.Time `gorm:"index:idx_notif_recipient_created,priority:2"`
	ExpiresAt   time.Time `gorm:"index"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// NotificationView is the populated wire form pushed to clients.
type NotificationView struct {
	ID        string           `json:"id"`
	Recipient string           `json:"recipient"`
	Sender    *UserSummary     `json:"sender"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Link      string           `json:"link,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

func (n *Notification) View(sender *UserSummary) NotificationView {
	return NotificationView{
		ID:        n.ID,
		Recipient: n.RecipientID,
		Sender:    sender,
		Type:      n.Type,
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
