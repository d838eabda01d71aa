package dashboard

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/nikhil/teamglow/internal/models"
	teammodels "github.com/nikhil/teamglow/internal/models/teams"
	usermodels "github.com/nikhil/teamglow/internal/models/users"
	"github.com/nikhil/teamglow/internal/service/session"
)

type fakeSession struct {
	state session.State
	user  *usermodels.User
}

func (f fakeSession) State() session.State   { return f.state }
func (f fakeSession) User() *usermodels.User { return f.user }

type fakeFeedback []models.Feedback

func (f fakeFeedback) ForEmployee(id string) []models.Feedback {
	out := []models.Feedback{}
	for _, fb := range f {
		if fb.EmployeeID == id {
			out = append(out, fb)
		}
	}
	return out
}

func (f fakeFeedback) ForManager(id string) []models.Feedback {
	out := []models.Feedback{}
	for _, fb := range f {
		if fb.ManagerID == id {
			out = append(out, fb)
		}
	}
	return out
}

type fakeRoster struct {
	members []teammodels.Member
	err     error
	calls   int
}

func (f *fakeRoster) Members(context.Context) ([]teammodels.Member, error) {
	f.calls++
	return f.members, f.err
}

var (
	sarah = usermodels.User{ID: "m1", Name: "Sarah Johnson", Role: usermodels.RoleManager}
	mike  = usermodels.User{ID: "e1", Name: "Mike Chen", Role: usermodels.RoleEmployee, ManagerID: "m1"}

	cache = fakeFeedback{
		{ID: "f4", ManagerID: "m1", EmployeeID: "e2", EmployeeName: "Emily Davis", ManagerName: "Sarah Johnson", Sentiment: models.SentimentNeutral, CreatedAt: "2024-03-04T09:00:00Z"},
		{ID: "f3", ManagerID: "m1", EmployeeID: "e1", EmployeeName: "Mike Chen", ManagerName: "Sarah Johnson", Sentiment: models.SentimentPositive, Acknowledged: true, AcknowledgedAt: "2024-03-05T10:00:00Z", CreatedAt: "2024-03-03T09:00:00Z"},
		{ID: "f2", ManagerID: "m1", EmployeeID: "e1", EmployeeName: "Mike Chen", ManagerName: "Sarah Johnson", Sentiment: models.SentimentNegative, CreatedAt: "2024-03-02T09:00:00Z"},
		{ID: "f1", ManagerID: "m2", EmployeeID: "e3", Sentiment: models.SentimentPositive},
	}
)

func TestComputeStats(t *testing.T) {
	items := []models.Feedback{
		{Sentiment: models.SentimentPositive, Acknowledged: true},
		{Sentiment: models.SentimentPositive},
		{Sentiment: models.SentimentNeutral, Acknowledged: true},
	}

	got := ComputeStats(items)
	want := Stats{
		Total:        3,
		Acknowledged: 2,
		Pending:      1,
		Sentiments: map[models.Sentiment]int{
			models.SentimentPositive: 2,
			models.SentimentNeutral:  1,
			models.SentimentNegative: 0,
		},
		PositivePercent:     67,
		AcknowledgedPercent: 67,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ComputeStats = %+v, want %+v", got, want)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	got := ComputeStats(nil)
	if got.Total != 0 || got.PositivePercent != 0 || got.AcknowledgedPercent != 0 {
		t.Fatalf("ComputeStats(nil) = %+v", got)
	}
	if len(got.Sentiments) != 3 {
		t.Fatalf("sentiment buckets = %v", got.Sentiments)
	}
}

func TestBuildRequiresAuthenticatedSession(t *testing.T) {
	tests := []fakeSession{
		{state: session.StateLoading},
		{state: session.StateAnonymous},
		{state: session.StateAuthenticated},
	}
	for _, sess := range tests {
		if _, err := Build(context.Background(), sess, cache, nil, nil); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("Build(%v) err = %v", sess.state, err)
		}
	}
}

func TestBuildEmployeeView(t *testing.T) {
	roster := &fakeRoster{}
	v, err := Build(context.Background(), fakeSession{session.StateAuthenticated, &mike}, cache, roster, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ev, ok := v.(*EmployeeView)
	if !ok {
		t.Fatalf("view = %T", v)
	}
	if v.Role() != usermodels.RoleEmployee {
		t.Fatalf("role = %s", v.Role())
	}
	if len(ev.Feedback) != 2 || ev.Feedback[0].ID != "f3" || ev.Feedback[1].ID != "f2" {
		t.Fatalf("feedback = %+v", ev.Feedback)
	}
	if ev.Stats.Acknowledged != 1 || ev.Stats.Pending != 1 {
		t.Fatalf("stats = %+v", ev.Stats)
	}
	if roster.calls != 0 {
		t.Fatal("employee view fetched the roster")
	}
}

func TestBuildManagerView(t *testing.T) {
	roster := &fakeRoster{members: []teammodels.Member{
		{ID: "e2", Name: "Emily Davis", Email: "emily@company.com"},
		{ID: "e4", Name: "John Smith", Email: "john@company.com"},
		{ID: "e1", Name: "Mike Chen", Email: "mike@company.com"},
	}}
	v, err := Build(context.Background(), fakeSession{session.StateAuthenticated, &sarah}, cache, roster, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mv, ok := v.(*ManagerView)
	if !ok {
		t.Fatalf("view = %T", v)
	}
	if mv.Stats.Total != 3 {
		t.Fatalf("total = %d", mv.Stats.Total)
	}

	want := []MemberSummary{
		{Member: roster.members[0], FeedbackCount: 1, Latest: models.SentimentNeutral},
		{Member: roster.members[1]},
		{Member: roster.members[2], FeedbackCount: 2, Latest: models.SentimentPositive},
	}
	if !reflect.DeepEqual(mv.Team, want) {
		t.Fatalf("team = %+v", mv.Team)
	}
}

func TestBuildManagerViewRosterFailure(t *testing.T) {
	roster := &fakeRoster{err: errors.New("boom")}
	v, err := Build(context.Background(), fakeSession{session.StateAuthenticated, &sarah}, cache, roster, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if mv := v.(*ManagerView); mv.Team != nil || mv.Stats.Total != 3 {
		t.Fatalf("view = %+v", mv)
	}
}

func TestFormatDate(t *testing.T) {
	tests := map[string]string{
		"2024-03-05T10:00:00Z":       "Mar 05, 2024",
		"2024-03-05T10:00:00.123456": "Mar 05, 2024",
		"2024-01-01":                 "Jan 01, 2024",
		"yesterday":                  "yesterday",
		"":                           "",
	}
	for in, want := range tests {
		if got := FormatDate(in); got != want {
			t.Errorf("FormatDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderManager(t *testing.T) {
	roster := &fakeRoster{members: []teammodels.Member{{ID: "e1", Name: "Mike Chen", Email: "mike@company.com"}}}
	v, err := Build(context.Background(), fakeSession{session.StateAuthenticated, &sarah}, cache, roster, nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, v); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Team Dashboard (Sarah Johnson, manager)",
		"Feedback for Emily Davis  [f4]",
		"Mar 03, 2024 | Positive | Acknowledged",
		"Acknowledged on Mar 05, 2024",
		"mike@company.com",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEmployeeEmpty(t *testing.T) {
	v, err := Build(context.Background(), fakeSession{session.StateAuthenticated, &mike}, fakeFeedback{}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Render(&buf, v); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No feedback yet.") {
		t.Fatalf("output:\n%s", buf.String())
	}
}
