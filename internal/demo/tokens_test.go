package demo

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tok, err := issuer.Issue("m1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	sub, err := issuer.Parse(tok)
	if err != nil || sub != "m1" {
		t.Fatalf("Parse = %q, %v", sub, err)
	}
}

func TestTokenRejections(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", time.Minute)
	other, _ := NewTokenIssuer("other", time.Minute)

	foreign, _ := other.Issue("m1")
	if _, err := issuer.Parse(foreign); err == nil {
		t.Error("accepted token signed with another secret")
	}

	tok, _ := issuer.Issue("m1")
	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := issuer.Parse(tok); err == nil {
		t.Error("accepted expired token")
	}
	issuer.now = time.Now

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "m1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := issuer.Parse(none); err == nil {
		t.Error("accepted unsigned token")
	}

	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("secret"))
	if _, err := issuer.Parse(noSub); err == nil {
		t.Error("accepted token without subject")
	}
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Fatal("expected error")
	}
	issuer, _ := NewTokenIssuer("s", 0)
	if issuer.ttl != 24*time.Hour {
		t.Fatalf("default ttl = %v", issuer.ttl)
	}
}
