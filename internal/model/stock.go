package model

import (
    "fmt"
    "strings"
    "time"
)

// MovementType is the direction of a ledger entry.  Quantities are always
// positive; the type carries the sign.
type MovementType string

const (
    MovementIn     MovementType = "in"
    MovementOut    MovementType = "out"
    MovementReturn MovementType = "return"
)

// ParseMovementType trims and lower-cases before matching, so "OUT" and
// " In " are accepted.  Unknown values are rejected.
func ParseMovementType(s string) (MovementType, error) {
    switch t := MovementType(strings.ToLower(strings.TrimSpace(s))); t {
    case MovementIn, MovementOut, MovementReturn:
        return t, nil
    }
    return "", fmt.Errorf("type must be one of in, out, return (got %q)", s)
}

// Inbound reports whether the movement adds to the balance.
func (t MovementType) Inbound() bool { return t == MovementIn || t == MovementReturn }

// MaxNoteLen bounds StockEntry.Note.
const MaxNoteLen = 255

// StockEntry is one immutable row of the `stocks` ledger.
type StockEntry struct {
    ID        uint64       `db:"id" json:"id"`
    SpongeID  uint64       `db:"sponge_id" json:"sponge_id"`
    Quantity  float64      `db:"quantity" json:"quantity"`
    Type      MovementType `db:"type" json:"type"`
    Price     *float64     `db:"price" json:"price"`
    Note      *string      `db:"note" json:"note"`
    CreatedBy *uint64      `db:"created_by" json:"created_by"` // nulled when the user is removed
    Date      time.Time    `db:"date" json:"date"`
    CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
