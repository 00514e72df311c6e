package queue

import (
    "context"
    "encoding/json"
    "errors"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/iliyamo/sponge-stock-api/internal/notify"
)

func TestAppendMovementLine(t *testing.T) {
    dir := t.TempDir()
    uid := uint64(7)
    body, _ := json.Marshal(StockMovementRecorded{
        EntryID: 3, SpongeID: 1, SpongeName: "Foam A", Type: "out",
        Quantity: 20, Balance: 4, Critical: true, CreatedBy: &uid, RecordedAt: "2025-03-10T08:00:00Z",
    })
    if err := appendMovementLine(dir, body); err != nil {
        t.Fatal(err)
    }
    if err := appendMovementLine(dir, body); err != nil {
        t.Fatal(err)
    }
    raw, err := os.ReadFile(filepath.Join(dir, "stock.log"))
    if err != nil {
        t.Fatal(err)
    }
    lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
    if len(lines) != 2 {
        t.Fatalf("lines = %d, want 2", len(lines))
    }
    for _, want := range []string{`sponge="Foam A"`, "type=out", "quantity=20", "balance=4", "created_by=7", "CRITICAL"} {
        if !strings.Contains(lines[0], want) {
            t.Errorf("line %q missing %q", lines[0], want)
        }
    }
}

func TestAppendMovementLineRejectsGarbage(t *testing.T) {
    if err := appendMovementLine(t.TempDir(), []byte("{")); err == nil {
        t.Fatal("expected unmarshal error")
    }
}

type recordingSink struct {
    got []notify.Message
    err error
}

func (s *recordingSink) Deliver(_ context.Context, m notify.Message) error {
    s.got = append(s.got, m)
    return s.err
}

func TestDeliverAlert(t *testing.T) {
    sink := &recordingSink{}
    body, _ := json.Marshal(notify.Message{To: []string{"admin@factory.com"}, Subject: "s", Body: "b"})
    if err := deliverAlert(context.Background(), sink, body); err != nil {
        t.Fatal(err)
    }
    if len(sink.got) != 1 || sink.got[0].To[0] != "admin@factory.com" {
        t.Fatalf("delivered = %+v", sink.got)
    }
    sink.err = errors.New("smtp down")
    if err := deliverAlert(context.Background(), sink, body); err == nil {
        t.Fatal("sink error must propagate so the message is rejected")
    }
}
