package models

import "time"

// User is the slice of the identity service the chat core reads: enough to
// render a sender.
type User struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:100"`
	Email     string `gorm:"size:255;index"`
	Avatar    string `gorm:"size:512"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserSummary is the display-friendly form of a user embedded in events.
type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
