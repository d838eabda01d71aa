// Package dashboard builds the role-specific view models shown after login.
package dashboard

import (
	"context"
	"errors"
	"math"

	"github.com/nikhil/teamglow/internal/logger"
	"github.com/nikhil/teamglow/internal/models"
	teammodels "github.com/nikhil/teamglow/internal/models/teams"
	usermodels "github.com/nikhil/teamglow/internal/models/users"
	"github.com/nikhil/teamglow/internal/service/session"
)

var ErrNotAuthenticated = errors.New("dashboard: no authenticated user")

// SessionReader exposes the session state the dashboard gates on.
type SessionReader interface {
	State() session.State
	User() *usermodels.User
}

// FeedbackReader is the read side of the feedback cache.
type FeedbackReader interface {
	ForEmployee(employeeID string) []models.Feedback
	ForManager(managerID string) []models.Feedback
}

// MemberSource fetches the manager's roster.
type MemberSource interface {
	Members(ctx context.Context) ([]teammodels.Member, error)
}

// View is either an *EmployeeView or a *ManagerView.
type View interface {
	Role() usermodels.Role
}

type Stats struct {
	Total               int
	Acknowledged        int
	Pending             int
	Sentiments          map[models.Sentiment]int
	PositivePercent     int
	AcknowledgedPercent int
}

type EmployeeView struct {
	User     usermodels.User
	Feedback []models.Feedback
	Stats    Stats
}

func (*EmployeeView) Role() usermodels.Role { return usermodels.RoleEmployee }

// MemberSummary is one row of the manager's team overview.
type MemberSummary struct {
	Member        teammodels.Member
	FeedbackCount int
	// Latest is the sentiment of the member's first entry in cache order, or
	// empty when the member has no feedback yet.
	Latest models.Sentiment
}

type ManagerView struct {
	User     usermodels.User
	Feedback []models.Feedback
	Stats    Stats
	Team     []MemberSummary
}

func (*ManagerView) Role() usermodels.Role { return usermodels.RoleManager }

// Build returns the view for the session's principal. Managers get the team
// overview; a roster failure is logged and leaves the overview empty.
func Build(ctx context.Context, sess SessionReader, fb FeedbackReader, roster MemberSource, log *logger.Logger) (View, error) {
	if log == nil {
		log = logger.NewNop()
	}

	user := sess.User()
	if sess.State() != session.StateAuthenticated || user == nil {
		return nil, ErrNotAuthenticated
	}

	if !user.IsManager() {
		items := fb.ForEmployee(user.ID)
		return &EmployeeView{User: *user, Feedback: items, Stats: ComputeStats(items)}, nil
	}

	items := fb.ForManager(user.ID)
	view := &ManagerView{User: *user, Feedback: items, Stats: ComputeStats(items)}

	if roster != nil {
		members, err := roster.Members(ctx)
		if err != nil {
			log.WithUser(user.ID).Error("Error fetching team members", "error", err)
		} else {
			view.Team = Summarize(members, items)
		}
	}
	return view, nil
}

// ComputeStats counts acknowledgement and sentiment over items.
func ComputeStats(items []models.Feedback) Stats {
	st := Stats{
		Total: len(items),
		Sentiments: map[models.Sentiment]int{
			models.SentimentPositive: 0,
			models.SentimentNeutral:  0,
			models.SentimentNegative: 0,
		},
	}
	for _, f := range items {
		if f.Acknowledged {
			st.Acknowledged++
		} else {
			st.Pending++
		}
		st.Sentiments[f.Sentiment]++
	}
	st.PositivePercent = percent(st.Sentiments[models.SentimentPositive], st.Total)
	st.AcknowledgedPercent = percent(st.Acknowledged, st.Total)
	return st
}

// Summarize builds the team overview rows in roster order.
func Summarize(members []teammodels.Member, items []models.Feedback) []MemberSummary {
	out := make([]MemberSummary, 0, len(members))
	for _, m := range members {
		row := MemberSummary{Member: m}
		for _, f := range items {
			if f.EmployeeID != m.ID {
				continue
			}
			if row.FeedbackCount == 0 {
				row.Latest = f.Sentiment
			}
			row.FeedbackCount++
		}
		out = append(out, row)
	}
	return out
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(total)))
}
