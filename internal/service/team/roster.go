// Package team fetches a manager's roster. Members are never cached; every
// call goes to the API.
package team

import (
	"context"

	"github.com/nikhil/teamglow/internal/logger"
	teammodels "github.com/nikhil/teamglow/internal/models/teams"
)

// Lister is the subset of the API client used by Roster.
type Lister interface {
	TeamMembers(ctx context.Context) ([]teammodels.Member, error)
}

// Roster fetches team members on demand.
type Roster struct {
	remote Lister
	Log    *logger.Logger
}

// NewRoster initializes a new roster service
func NewRoster(remote Lister, log *logger.Logger) *Roster {
	if remote == nil {
		panic("team: NewRoster requires a remote")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Roster{remote: remote, Log: log}
}

// Members returns the current manager's direct reports.
func (r *Roster) Members(ctx context.Context) ([]teammodels.Member, error) {
	members, err := r.remote.TeamMembers(ctx)
	if err != nil {
		r.Log.Error("Error fetching team members", "error", err)
		return nil, err
	}
	r.Log.Debug("Team members fetched", "count", len(members))
	return members, nil
}
