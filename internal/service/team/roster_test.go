package team

import (
	"context"
	"errors"
	"testing"

	teammodels "github.com/nikhil/teamglow/internal/models/teams"
)

type listerFunc func(ctx context.Context) ([]teammodels.Member, error)

func (f listerFunc) TeamMembers(ctx context.Context) ([]teammodels.Member, error) { return f(ctx) }

func TestMembersFetchesEveryCall(t *testing.T) {
	calls := 0
	r := NewRoster(listerFunc(func(context.Context) ([]teammodels.Member, error) {
		calls++
		return []teammodels.Member{{ID: "e1", Name: "Mike Chen"}, {ID: "e2", Name: "Emily Davis"}}, nil
	}), nil)

	for i := 0; i < 2; i++ {
		members, err := r.Members(context.Background())
		if err != nil {
			t.Fatalf("Members: %v", err)
		}
		if len(members) != 2 {
			t.Fatalf("len = %d", len(members))
		}
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2 (no caching)", calls)
	}
}

func TestMembersPropagatesError(t *testing.T) {
	boom := errors.New("status 403")
	r := NewRoster(listerFunc(func(context.Context) ([]teammodels.Member, error) {
		return nil, boom
	}), nil)

	if _, err := r.Members(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestLookup(t *testing.T) {
	members := []teammodels.Member{{ID: "e1", Name: "Mike Chen"}, {ID: "e2", Name: "Emily Davis"}}

	m, ok := teammodels.Lookup(members, "e2")
	if !ok || m.Name != "Emily Davis" {
		t.Fatalf("Lookup = %+v, %v", m, ok)
	}
	if _, ok := teammodels.Lookup(members, "nobody"); ok {
		t.Fatal("expected miss")
	}
}

func TestNewRosterPanicsWithoutRemote(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewRoster(nil, nil)
}
