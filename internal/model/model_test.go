package model

import "testing"

func TestParseMovementTypeNormalizesCase(t *testing.T) {
    cases := map[string]MovementType{"in": MovementIn, "OUT": MovementOut, " Return ": MovementReturn}
    for in, want := range cases {
        got, err := ParseMovementType(in)
        if err != nil || got != want {
            t.Errorf("ParseMovementType(%q) = %q, %v; want %q", in, got, err, want)
        }
    }
    if _, err := ParseMovementType("transfer"); err == nil {
        t.Error("expected error for unknown type")
    }
}

func TestStrictEnums(t *testing.T) {
    if _, err := ParseHardness("SOFT"); err == nil {
        t.Error("hardness is not case-normalized")
    }
    if _, err := ParseRole("superuser"); err == nil {
        t.Error("unknown role accepted")
    }
    if _, err := ParseNotificationType("critical"); err == nil {
        t.Error("unknown notification type accepted")
    }
    if u, err := ParseUnit("volume"); err != nil || u != UnitVolume {
        t.Errorf("ParseUnit(volume) = %q, %v", u, err)
    }
    if u, err := ParseUnit("count"); err != nil || u != UnitCount {
        t.Errorf("ParseUnit(count) = %q, %v", u, err)
    }
    if _, err := ParseUnit("kg"); err == nil {
        t.Error("unknown unit accepted")
    }
}

func TestInbound(t *testing.T) {
    if !MovementIn.Inbound() || !MovementReturn.Inbound() || MovementOut.Inbound() {
        t.Fatal("Inbound classification wrong")
    }
}
