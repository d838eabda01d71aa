package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nikhil/teamglow/internal/config"
	"github.com/nikhil/teamglow/internal/dashboard"
	"github.com/nikhil/teamglow/internal/demo"
	"github.com/nikhil/teamglow/internal/logger"
	"github.com/nikhil/teamglow/internal/models"
	teammodels "github.com/nikhil/teamglow/internal/models/teams"
	usermodels "github.com/nikhil/teamglow/internal/models/users"
	"github.com/nikhil/teamglow/internal/routes"
)

const demoSecret = "teamglow-demo-secret"

type command struct {
	name    string
	summary string
	// feedback commands bind the feedback cache to the session on startup.
	feedback bool
	// server commands do not build the client.
	server bool
	run    func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{name: "login", summary: "sign in and store the access token", run: cmdLogin},
	{name: "logout", summary: "forget the stored session", run: cmdLogout},
	{name: "whoami", summary: "show the signed-in user", run: cmdWhoami},
	{name: "dashboard", summary: "show the dashboard for your role", feedback: true, run: cmdDashboard},
	{name: "list", summary: "list feedback", feedback: true, run: cmdList},
	{name: "give", summary: "give feedback to a team member (managers)", feedback: true, run: cmdGive},
	{name: "edit", summary: "edit feedback you gave (managers)", feedback: true, run: cmdEdit},
	{name: "ack", summary: "acknowledge feedback you received", feedback: true, run: cmdAck},
	{name: "team", summary: "list your team members (managers)", run: cmdTeam},
	{name: "demo-server", summary: "run the in-memory demo API", server: true},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func (a *app) requireUser() (*usermodels.User, error) {
	u := a.session.User()
	if u == nil {
		return nil, errors.New("not logged in; run `teamglow login` first")
	}
	return u, nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("login: -email is required")
	}
	if *password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	if !a.session.Login(ctx, *email, *password) {
		return errors.New("login failed; check your email and password")
	}
	u := a.session.User()
	fmt.Printf("Signed in as %s (%s)\n", u.Name, u.Role)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	a.session.Logout(ctx)
	fmt.Println("Signed out")
	return nil
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s (%s)\n", u.Name, u.Initials())
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role\t%s\n", u.Role)
	fmt.Fprintf(tw, "ID\t%s\n", u.ID)
	return tw.Flush()
}

func cmdDashboard(ctx context.Context, a *app, _ []string) error {
	view, err := dashboard.Build(ctx, a.session, a.feedback, a.roster, a.log)
	if errors.Is(err, dashboard.ErrNotAuthenticated) {
		_, err = a.requireUser()
	}
	if err != nil {
		return err
	}
	return dashboard.Render(os.Stdout, view)
}

func cmdList(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("list")
	employee := fs.String("employee", "", "only feedback addressed to this employee id")
	manager := fs.String("manager", "", "only feedback given by this manager id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	var items []models.Feedback
	switch {
	case *employee != "":
		items = a.feedback.ForEmployee(*employee)
	case *manager != "":
		items = a.feedback.ForManager(*manager)
	case u.IsManager():
		items = a.feedback.ForManager(u.ID)
	default:
		items = a.feedback.ForEmployee(u.ID)
	}

	if len(items) == 0 {
		fmt.Println("No feedback yet.")
		return nil
	}
	return dashboard.RenderList(os.Stdout, items, u.IsManager())
}

func cmdGive(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("give")
	employee := fs.String("employee", "", "employee id or email")
	strengths := fs.String("strengths", "", "what the employee does well")
	improve := fs.String("improve", "", "areas to improve")
	sentiment := fs.String("sentiment", string(models.SentimentNeutral), "positive, neutral or negative")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(); err != nil {
		return err
	}

	employeeID, err := a.resolveMember(ctx, *employee)
	if err != nil {
		return err
	}

	created, err := a.feedback.AddFeedback(ctx, models.Draft{
		EmployeeID:     employeeID,
		Strengths:      *strengths,
		AreasToImprove: *improve,
		Sentiment:      models.Sentiment(*sentiment),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Feedback %s submitted for %s\n", created.ID, created.EmployeeName)
	return nil
}

// resolveMember accepts a member id or an email from the manager's roster.
func (a *app) resolveMember(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", errors.New("-employee is required")
	}
	if !strings.Contains(ref, "@") {
		return ref, nil
	}
	members, err := a.roster.Members(ctx)
	if err != nil {
		return "", err
	}
	for _, m := range members {
		if strings.EqualFold(m.Email, ref) {
			return m.ID, nil
		}
	}
	return "", fmt.Errorf("no team member with email %s", ref)
}

func cmdEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("edit")
	id := fs.String("id", "", "feedback id")
	strengths := fs.String("strengths", "", "new strengths text")
	improve := fs.String("improve", "", "new areas to improve")
	sentiment := fs.String("sentiment", "", "new sentiment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("edit: -id is required")
	}
	if _, err := a.requireUser(); err != nil {
		return err
	}

	// Only flags given on the command line are sent.
	var changes models.Changes
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strengths":
			changes.Strengths = strengths
		case "improve":
			changes.AreasToImprove = improve
		case "sentiment":
			s := models.Sentiment(*sentiment)
			changes.Sentiment = &s
		}
	})
	if changes.Empty() {
		return errors.New("edit: nothing to change")
	}

	updated, err := a.feedback.UpdateFeedback(ctx, *id, changes)
	if err != nil {
		return err
	}
	return dashboard.RenderList(os.Stdout, []models.Feedback{updated}, true)
}

func cmdAck(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("ack")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: teamglow ack <feedback-id>")
	}
	if _, err := a.requireUser(); err != nil {
		return err
	}

	acked, err := a.feedback.AcknowledgeFeedback(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("Acknowledged feedback from %s on %s\n", acked.ManagerName, dashboard.FormatDate(acked.AcknowledgedAt))
	return nil
}

func cmdTeam(ctx context.Context, a *app, _ []string) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	members, err := a.roster.Members(ctx)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		fmt.Println("No team members found.")
		return nil
	}
	return printMembers(members)
}

func printMembers(members []teammodels.Member) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL\tID")
	for _, m := range members {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Name, m.Email, m.ID)
	}
	return tw.Flush()
}

func runDemoServer(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string) error {
	fs := newFlagSet("demo-server")
	addr := fs.String("addr", cfg.DemoAddr, "listen address")
	password := fs.String("password", "password", "password for every seeded account")
	if err := fs.Parse(args); err != nil {
		return err
	}

	secret := cfg.JWTSecret
	if secret == "" {
		log.Warn("JWT_SECRET not set, using the built-in demo secret")
		secret = demoSecret
	}
	tokens, err := demo.NewTokenIssuer(secret, 24*time.Hour)
	if err != nil {
		return err
	}

	store := demo.NewStore()
	manager, employees, err := store.Seed(*password)
	if err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	log.Info("Demo data seeded", "manager", manager.Email, "employees", len(employees))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           routes.RegisterAllRoutes(routes.Deps{Store: store, Tokens: tokens, Log: log.Named("demo")}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Demo API listening", "addr", *addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down demo API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
