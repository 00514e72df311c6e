package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/sponge-stock-api/internal/model"
	"github.com/iliyamo/sponge-stock-api/internal/service"
)

func TestNotificationLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	john, _ := registerAndLogin(t, e, "john")
	jane, _ := registerAndLogin(t, e, "jane")

	own, err := e.notes.Create(ctx, service.NotificationInput{UserID: &john.ID, Title: "Hello", Message: "for john"})
	if err != nil {
		t.Fatal(err)
	}
	if own.Type != model.NotificationInfo {
		t.Fatalf("default type = %q", own.Type)
	}
	if _, err := e.notes.Create(ctx, service.NotificationInput{Title: "All", Message: "everyone", Type: "warning"}); err != nil {
		t.Fatal(err)
	}

	list, err := e.notes.List(ctx, john.ID, 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("john sees %d notifications, %v", len(list), err)
	}
	list, err = e.notes.List(ctx, jane.ID, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("jane sees %d notifications, %v", len(list), err)
	}

	if _, err := e.notes.MarkRead(ctx, own.ID, jane.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("jane marking john's notification: %v", err)
	}
	read, err := e.notes.MarkRead(ctx, own.ID, john.ID)
	if err != nil || !read.IsRead || read.ReadAt == nil {
		t.Fatalf("mark read: %+v, %v", read, err)
	}
	if n, _ := e.notes.UnreadCount(ctx, john.ID); n != 1 {
		t.Fatalf("john unread = %d, want 1", n)
	}
	if n, err := e.notes.MarkAllRead(ctx, john.ID); err != nil || n != 1 {
		t.Fatalf("mark all read = %d, %v", n, err)
	}

	if err := e.notes.Delete(ctx, own.ID, jane); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("jane deleting john's notification: %v", err)
	}
	if err := e.notes.Delete(ctx, own.ID, john); err != nil {
		t.Fatal(err)
	}
}

func TestNotificationCreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	missing := uint64(999)

	if _, err := e.notes.Create(ctx, service.NotificationInput{Title: "", Message: "x"}); !isValidation(err) {
		t.Fatalf("empty title: %v", err)
	}
	if _, err := e.notes.Create(ctx, service.NotificationInput{Title: "x", Message: " "}); !isValidation(err) {
		t.Fatalf("empty message: %v", err)
	}
	if _, err := e.notes.Create(ctx, service.NotificationInput{Title: "x", Message: "y", Type: "urgent"}); !isValidation(err) {
		t.Fatalf("bad type: %v", err)
	}
	if _, err := e.notes.Create(ctx, service.NotificationInput{UserID: &missing, Title: "x", Message: "y"}); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("unknown recipient: %v", err)
	}
	if _, err := e.notes.List(ctx, 1, service.MaxNotificationLimit+1); !isValidation(err) {
		t.Fatalf("limit too large: %v", err)
	}
}
