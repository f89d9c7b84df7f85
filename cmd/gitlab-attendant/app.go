package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gitlabadapter "github.com/ericfisherdev/gitlab-attendant/internal/adapter/driven/gitlab"
	"github.com/ericfisherdev/gitlab-attendant/internal/adapter/driven/secrand"
	sqliteadapter "github.com/ericfisherdev/gitlab-attendant/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/gitlab-attendant/internal/application"
	"github.com/ericfisherdev/gitlab-attendant/internal/config"
	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
	"github.com/ericfisherdev/gitlab-attendant/internal/domain/port/driven"
)

// runAttendant wires the adapters and services and runs either a single tick
// or the scheduler until ctx is canceled.
func runAttendant(ctx context.Context, cfg *config.Config, once bool, logger *slog.Logger) error {
	logger.Info("config loaded",
		"host", cfg.Host,
		"interval", cfg.Interval,
		"run_immediately", cfg.RunImmediately,
		"mr_stale_days", cfg.MergeRequestStaleDays,
		"issue_due_days", cfg.IssueDueDays,
		"journal", cfg.JournalPath,
	)

	// 1. GitLab client (reads retried, writes attempted once).
	client, err := gitlabadapter.NewClient(cfg.Host, cfg.Token, logger.With("component", "gitlab"))
	if err != nil {
		return err
	}

	// 2. Optional action journal wrapping the writer.
	var writer driven.GitLabWriter = client
	if cfg.HasJournal() {
		db, err := openJournal(ctx, cfg.JournalPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		logger.Info("journal opened", "path", db.Path(), "schema_version", db.SchemaVersion())

		writer = application.NewJournalingWriter(client, sqliteadapter.NewActionRepo(db), logger, nil)
	}

	// 3. Services and the ordered task list.
	random := secrand.New()
	attendant := application.NewAttendant(
		application.NewMergeRequestService(client, writer, random, logger, nil),
		application.NewIssueService(client, writer, random, logger, nil),
		application.NewBranchService(client, writer, logger),
		application.AttendantConfig{
			MergeRequestStaleDays: cfg.MergeRequestStaleDays,
			IssueDueDays:          cfg.IssueDueDays,
		},
		logger,
	)

	if once {
		return attendant.RunOnce(ctx)
	}

	// 4. Tick until a signal arrives or a tick fails.
	err = application.NewScheduler(attendant, cfg.Interval, cfg.RunImmediately, logger).Start(ctx)
	logger.Info("shutdown complete")
	return err
}

func checkCredentials(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.Member, error) {
	client, err := gitlabadapter.NewClient(cfg.Host, cfg.Token, logger.With("component", "gitlab"))
	if err != nil {
		return model.Member{}, err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return model.Member{}, fmt.Errorf("check credentials against %s: %w", cfg.Host, err)
	}
	return user, nil
}

func readHistory(ctx context.Context, journalPath string, since time.Time) ([]model.Action, error) {
	db, err := openJournal(ctx, journalPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return sqliteadapter.NewActionRepo(db).ListSince(ctx, since)
}

// openJournal opens the sqlite journal at its latest schema.
func openJournal(ctx context.Context, path string) (*sqliteadapter.DB, error) {
	db, err := sqliteadapter.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return db, nil
}
