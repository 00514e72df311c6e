package model

import (
    "fmt"
    "time"
)

// NotificationType is the severity shown to the reader.
type NotificationType string

const (
    NotificationInfo    NotificationType = "info"
    NotificationWarning NotificationType = "warning"
    NotificationError   NotificationType = "error"
    NotificationSuccess NotificationType = "success"
)

func ParseNotificationType(s string) (NotificationType, error) {
    switch t := NotificationType(s); t {
    case NotificationInfo, NotificationWarning, NotificationError, NotificationSuccess:
        return t, nil
    }
    return "", fmt.Errorf("notification type must be one of info, warning, error, success (got %q)", s)
}

// Notification is an in-app message.  A nil UserID is a broadcast visible
// to everyone.
type Notification struct {
    ID        uint64           `db:"id" json:"id"`
    UserID    *uint64          `db:"user_id" json:"user_id"`
    Title     string           `db:"title" json:"title"`
    Message   string           `db:"message" json:"message"`
    Type      NotificationType `db:"type" json:"type"`
    IsRead    bool             `db:"is_read" json:"is_read"`
    CreatedAt time.Time        `db:"created_at" json:"created_at"`
    ReadAt    *time.Time       `db:"read_at" json:"read_at"`
}
