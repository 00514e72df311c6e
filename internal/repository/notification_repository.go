package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/sponge-stock-api/internal/model"
)

const notificationColumns = "id, user_id, title, message, type, is_read, created_at, read_at"

// visibleTo is the filter for "the user's own plus broadcast".
const visibleTo = "(user_id = ? OR user_id IS NULL)"

// NotificationRepo stores in-app notifications.
type NotificationRepo struct{ db *sqlx.DB }

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts one notification.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return insertNotification(ctx, r.db, n)
}

// CreateMany inserts all of ns in one transaction.
func (r *NotificationRepo) CreateMany(ctx context.Context, ns []*model.Notification) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, n := range ns {
		if err := insertNotification(ctx, tx, n); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func insertNotification(ctx context.Context, ex sqlx.ExecerContext, n *model.Notification) error {
	ts := now()
	res, err := ex.ExecContext(ctx,
		"INSERT INTO notifications (user_id, title, message, type, is_read, created_at) VALUES (?, ?, ?, ?, 0, ?)",
		n.UserID, n.Title, n.Message, n.Type, ts)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	n.CreatedAt = ts
	n.IsRead = false
	return nil
}

// ListForUser returns the user's own and broadcast notifications, newest
// first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	out := []model.Notification{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+notificationColumns+" FROM notifications WHERE "+visibleTo+" ORDER BY created_at DESC, id DESC LIMIT ?",
		userID, limit)
	return out, err
}

// CountBroadcast counts notifications without a recipient.
func (r *NotificationRepo) CountBroadcast(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM notifications WHERE user_id IS NULL")
	return n, err
}

// UnreadCount counts unread notifications visible to the user.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM notifications WHERE "+visibleTo+" AND is_read = 0", userID)
	return n, err
}

// MarkRead marks one visible notification read and returns it.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) (*model.Notification, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1, read_at = ? WHERE id = ? AND "+visibleTo+" AND is_read = 0",
		now(), id, userID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// already read, or not visible
		var nt model.Notification
		if err := r.db.GetContext(ctx, &nt,
			"SELECT "+notificationColumns+" FROM notifications WHERE id = ? AND "+visibleTo, id, userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotificationNotFound
			}
			return nil, err
		}
		return &nt, nil
	}
	var nt model.Notification
	if err := r.db.GetContext(ctx, &nt, "SELECT "+notificationColumns+" FROM notifications WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &nt, nil
}

// MarkAllRead marks every unread visible notification read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1, read_at = ? WHERE "+visibleTo+" AND is_read = 0", now(), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a notification owned by userID.  Broadcasts can only be
// removed when allowBroadcast is set.
func (r *NotificationRepo) Delete(ctx context.Context, id, userID uint64, allowBroadcast bool) error {
	q := "DELETE FROM notifications WHERE id = ? AND user_id = ?"
	if allowBroadcast {
		q = "DELETE FROM notifications WHERE id = ? AND " + visibleTo
	}
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
