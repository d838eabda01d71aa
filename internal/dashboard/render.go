package dashboard

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/nikhil/teamglow/internal/models"
)

const dateLayout = "Jan 02, 2006"

// FormatDate renders an API timestamp as "Jan 02, 2006". Unparseable input is
// returned unchanged.
func FormatDate(ts string) string {
	t, ok := models.ParseTimestamp(ts)
	if !ok {
		return ts
	}
	return t.Format(dateLayout)
}

// Render writes a plain-text dashboard for v.
func Render(w io.Writer, v View) error {
	switch view := v.(type) {
	case *EmployeeView:
		return renderEmployee(w, view)
	case *ManagerView:
		return renderManager(w, view)
	}
	return fmt.Errorf("dashboard: unknown view %T", v)
}

func renderEmployee(w io.Writer, v *EmployeeView) error {
	fmt.Fprintf(w, "Your Feedback (%s, %s)\n\n", v.User.Name, v.User.Role)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total Feedback\t%d\n", v.Stats.Total)
	fmt.Fprintf(tw, "Acknowledged\t%d\n", v.Stats.Acknowledged)
	fmt.Fprintf(tw, "Pending Review\t%d\n", v.Stats.Pending)
	fmt.Fprintf(tw, "Positive Feedback\t%d (%d%% of total)\n",
		v.Stats.Sentiments[models.SentimentPositive], v.Stats.PositivePercent)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if len(v.Feedback) == 0 {
		_, err := fmt.Fprintln(w, "No feedback yet. Your manager hasn't provided any feedback yet.")
		return err
	}
	return RenderList(w, v.Feedback, false)
}

func renderManager(w io.Writer, v *ManagerView) error {
	fmt.Fprintf(w, "Team Dashboard (%s, %s)\n\n", v.User.Name, v.User.Role)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Team Members\t%d\n", len(v.Team))
	fmt.Fprintf(tw, "Total Feedback\t%d\n", v.Stats.Total)
	fmt.Fprintf(tw, "Acknowledged\t%d (%d%% rate)\n", v.Stats.Acknowledged, v.Stats.AcknowledgedPercent)
	fmt.Fprintf(tw, "Positive Feedback\t%d (%d%% of total)\n",
		v.Stats.Sentiments[models.SentimentPositive], v.Stats.PositivePercent)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(v.Team) > 0 {
		fmt.Fprintln(w, "\nYour Team")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tEMAIL\tFEEDBACK\tLATEST")
		for _, row := range v.Team {
			latest := "-"
			if row.FeedbackCount > 0 {
				latest = string(row.Latest)
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", row.Member.Name, row.Member.Email, row.FeedbackCount, latest)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\nFeedback History")
	if len(v.Feedback) == 0 {
		_, err := fmt.Fprintln(w, "No feedback yet. You haven't given any feedback yet.")
		return err
	}
	return RenderList(w, v.Feedback, true)
}

// RenderList writes one block per feedback entry. managerView selects whether
// the heading names the employee or the manager.
func RenderList(w io.Writer, items []models.Feedback, managerView bool) error {
	for i, f := range items {
		if i > 0 {
			fmt.Fprintln(w, strings.Repeat("-", 40))
		}
		title := "Feedback from " + f.ManagerName
		if managerView {
			title = "Feedback for " + f.EmployeeName
		}
		status := "Pending"
		if f.Acknowledged {
			status = "Acknowledged"
		}

		fmt.Fprintf(w, "%s  [%s]\n", title, f.ID)
		fmt.Fprintf(w, "%s | %s | %s\n", FormatDate(f.CreatedAt), f.Sentiment.Label(), status)
		fmt.Fprintf(w, "Strengths: %s\n", f.Strengths)
		fmt.Fprintf(w, "Areas to Improve: %s\n", f.AreasToImprove)
		if f.AcknowledgedAt != "" {
			if _, err := fmt.Fprintf(w, "Acknowledged on %s\n", FormatDate(f.AcknowledgedAt)); err != nil {
				return err
			}
		}
	}
	return nil
}
