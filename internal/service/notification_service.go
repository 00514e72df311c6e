package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/sponge-stock-api/internal/model"
	"github.com/iliyamo/sponge-stock-api/internal/repository"
)

const (
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 200
)

// NotificationInput is the body of POST /notifications.  A nil UserID
// broadcasts to everyone.
type NotificationInput struct {
	UserID  *uint64 `json:"user_id"`
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Type    string  `json:"type"`
}

type NotificationService struct {
	notes *repository.NotificationRepo
	users *repository.UserRepo
}

func NewNotificationService(notes *repository.NotificationRepo, users *repository.UserRepo) *NotificationService {
	return &NotificationService{notes: notes, users: users}
}

// List returns the caller's notifications and broadcasts, newest first.
// A zero limit means the default.
func (s *NotificationService) List(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	if limit == 0 {
		limit = DefaultNotificationLimit
	}
	if limit < 1 || limit > MaxNotificationLimit {
		return nil, invalid("limit", "must be between 1 and %d", MaxNotificationLimit)
	}
	return s.notes.ListForUser(ctx, userID, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	return s.notes.UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint64) (*model.Notification, error) {
	n, err := s.notes.MarkRead(ctx, id, userID)
	if errors.Is(err, repository.ErrNotificationNotFound) {
		return nil, notFound("notification")
	}
	return n, err
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	return s.notes.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Create(ctx context.Context, in NotificationInput) (*model.Notification, error) {
	n := &model.Notification{
		UserID:  in.UserID,
		Title:   strings.TrimSpace(in.Title),
		Message: strings.TrimSpace(in.Message),
		Type:    model.NotificationInfo,
	}
	if l := utf8.RuneCountInString(n.Title); l == 0 || l > 200 {
		return nil, invalid("title", "must be 1 to 200 characters")
	}
	if n.Message == "" {
		return nil, invalid("message", "is required")
	}
	if in.Type != "" {
		t, err := model.ParseNotificationType(in.Type)
		if err != nil {
			return nil, &ValidationError{Field: "type", Reason: err.Error()}
		}
		n.Type = t
	}
	if n.UserID != nil {
		if _, err := s.users.GetByID(ctx, *n.UserID); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, notFound("user")
			}
			return nil, err
		}
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete removes one of the caller's notifications.  Admins may also
// remove broadcasts.
func (s *NotificationService) Delete(ctx context.Context, id uint64, caller *model.User) error {
	err := s.notes.Delete(ctx, id, caller.ID, caller.Role == model.RoleAdmin)
	if errors.Is(err, repository.ErrNotificationNotFound) {
		return notFound("notification")
	}
	return err
}
