package model

import (
    "fmt"
    "strings"
    "time"
)

// Hardness is the firmness class of a sponge.
type Hardness string

const (
    HardnessSoft   Hardness = "soft"
    HardnessMedium Hardness = "medium"
    HardnessHard   Hardness = "hard"
)

// ParseHardness accepts only the three known values.
func ParseHardness(s string) (Hardness, error) {
    switch h := Hardness(strings.TrimSpace(s)); h {
    case HardnessSoft, HardnessMedium, HardnessHard:
        return h, nil
    }
    return "", fmt.Errorf("hardness must be one of soft, medium, hard (got %q)", s)
}

// Unit is how a sponge's stock is counted.  Volume is stored as "m3",
// piece count as "adet".
type Unit string

const (
    UnitVolume Unit = "m3"
    UnitCount  Unit = "adet"
)

// ParseUnit maps the accepted spellings onto the two canonical units.
func ParseUnit(s string) (Unit, error) {
    switch strings.TrimSpace(s) {
    case "m3", "volume":
        return UnitVolume, nil
    case "adet", "count", "pcs":
        return UnitCount, nil
    }
    return "", fmt.Errorf("unit must be m3 (volume) or adet (count) (got %q)", s)
}

// DefaultCriticalStock is used when a sponge is created without a threshold.
const DefaultCriticalStock = 5.0

// Sponge represents a product definition as stored in the `sponges` table.
// (density, hardness, thickness) identifies the physical variant and is
// unique across rows.
type Sponge struct {
    ID            uint64    `db:"id" json:"id"`                         // sponges.id
    Name          string    `db:"name" json:"name"`                     // unique, case-sensitive
    Density       float64   `db:"density" json:"density"`               // 0 < density < 100
    Hardness      Hardness  `db:"hardness" json:"hardness"`             // soft | medium | hard
    Width         *float64  `db:"width" json:"width"`                   // optional, > 0
    Height        *float64  `db:"height" json:"height"`                 // optional, > 0
    Thickness     *float64  `db:"thickness" json:"thickness"`           // optional, > 0
    Unit          Unit      `db:"unit" json:"unit"`                     // m3 | adet
    CriticalStock float64   `db:"critical_stock" json:"critical_stock"` // alert threshold, inclusive
    CreatedAt     time.Time `db:"created_at" json:"created_at"`
    UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
