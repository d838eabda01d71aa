package database

import (
	"strings"
	"testing"
)

func TestNormalizeDSNEnablesParseTime(t *testing.T) {
	got, err := NormalizeDSN("teamglow:secret@tcp(db.internal:3306)/teamglow")
	if err != nil {
		t.Fatalf("NormalizeDSN: %v", err)
	}
	if !strings.Contains(got, "parseTime=true") {
		t.Fatalf("parseTime missing from %q", got)
	}
	if !strings.HasPrefix(got, "teamglow:secret@tcp(db.internal:3306)/teamglow") {
		t.Fatalf("unexpected dsn %q", got)
	}
}

func TestNormalizeDSNRejectsGarbage(t *testing.T) {
	if _, err := NormalizeDSN("not a dsn"); err == nil {
		t.Fatal("expected error")
	}
}
