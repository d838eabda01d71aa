package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikhil/teamglow/internal/api"
	"github.com/nikhil/teamglow/internal/config"
	"github.com/nikhil/teamglow/internal/credentials"
	"github.com/nikhil/teamglow/internal/database"
	"github.com/nikhil/teamglow/internal/logger"
	"github.com/nikhil/teamglow/internal/service/feedback"
	"github.com/nikhil/teamglow/internal/service/session"
	"github.com/nikhil/teamglow/internal/service/team"
)

// app is the client-side object graph shared by every command.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	creds    credentials.Store
	client   *api.Client
	session  *session.Store
	feedback *feedback.Store
	roster   *team.Roster
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if cfg.CredentialsDSN != "" {
		db, err := database.Open(ctx, cfg.CredentialsDSN)
		if err != nil {
			return nil, err
		}
		store := credentials.NewSQLStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.creds = store
		a.closers = append(a.closers, db.Close)
	} else {
		a.creds = credentials.NewFileStore(cfg.CredentialsFile)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	a.client = api.NewClient(cfg.APIBaseURL, httpClient, a.creds, log.Named("api"))
	a.session = session.NewStore(a.client, a.creds, log.Named("session"))
	a.feedback = feedback.NewStore(a.client, log.Named("feedback"))
	a.roster = team.NewRoster(a.client, log.Named("team"))
	return a, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn("Close failed", "error", err)
		}
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: teamglow [-env file] <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", c.name, c.summary)
	}
}

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := lookup(flag.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if level == "" && !cmd.server {
		level = "warn"
	}
	log := logger.New("teamglow", logger.Options{Env: cfg.Env, Level: level, Output: os.Stderr})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cmd, cfg, log, flag.Args()[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd command, cfg *config.Config, log *logger.Logger, args []string) error {
	if cmd.server {
		return runDemoServer(ctx, cfg, log, args)
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	// The cache must observe the session before Restore so a restored
	// session triggers the initial load.
	if cmd.feedback {
		a.feedback.Bind(ctx, a.session)
	}
	a.session.Restore(ctx)

	return cmd.run(ctx, a, args)
}
