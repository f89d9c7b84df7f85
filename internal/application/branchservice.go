package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/port/driven"
)

// mergedBranchesAccepted is the message GitLab returns when it has queued
// the deletion of merged branches.
const mergedBranchesAccepted = "202 Accepted"

// BranchService removes branches that have already been merged.
type BranchService struct {
	client driven.GitLabClient
	writer driven.GitLabWriter
	logger *slog.Logger
}

// NewBranchService creates a new BranchService.
func NewBranchService(client driven.GitLabClient, writer driven.GitLabWriter, logger *slog.Logger) *BranchService {
	return &BranchService{
		client: client,
		writer: writer,
		logger: logger,
	}
}

// RemoveMerged requests merged-branch deletion for every project. A project
// whose request is not accepted is logged and the remaining projects are
// still processed. Transport errors are returned.
func (s *BranchService) RemoveMerged(ctx context.Context) error {
	projects, err := s.client.FetchProjects(ctx)
	if err != nil {
		return fmt.Errorf("fetch projects: %w", err)
	}

	var rejected int
	for _, p := range projects {
		result, err := s.writer.DeleteMergedBranches(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("delete merged branches of project %d: %w", p.ID, err)
		}

		if result.Message != mergedBranchesAccepted {
			rejected++
			s.logger.Error("merged branch cleanup not accepted",
				"project_id", p.ID,
				"project", p.Name,
				"status", result.StatusCode,
				"message", result.Message,
			)
		}
	}

	s.logger.Info("merged branch cleanup requested",
		"projects", len(projects),
		"rejected", rejected,
	)

	return nil
}
