package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
	"github.com/ericfisherdev/gitlab-attendant/internal/domain/port/driven"
)

// IssueService assigns owners to unowned issues and reminds assignees of
// issues that are overdue or coming due.
type IssueService struct {
	client driven.GitLabClient
	writer driven.GitLabWriter
	random driven.RandomSource
	logger *slog.Logger
	now    func() time.Time
}

// NewIssueService creates a new IssueService. A nil now uses time.Now.
func NewIssueService(
	client driven.GitLabClient,
	writer driven.GitLabWriter,
	random driven.RandomSource,
	logger *slog.Logger,
	now func() time.Time,
) *IssueService {
	if now == nil {
		now = time.Now
	}
	return &IssueService{
		client: client,
		writer: writer,
		random: random,
		logger: logger,
		now:    now,
	}
}

// AssignUnassigned assigns one random project member to every open issue
// that has no assignee in either representation.
func (s *IssueService) AssignUnassigned(ctx context.Context) error {
	issues, err := s.client.FetchOpenIssues(ctx)
	if err != nil {
		return fmt.Errorf("fetch issues: %w", err)
	}

	var unassigned []model.Issue
	for _, issue := range issues {
		if !issue.IsAssigned() {
			unassigned = append(unassigned, issue)
		}
	}
	if len(unassigned) == 0 {
		return nil
	}

	members := newMemberCache(s.client)
	for _, issue := range unassigned {
		projectMembers, err := members.get(ctx, issue.ProjectID)
		if err != nil {
			return err
		}

		chosen, ok, err := pick(s.random, projectMembers)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if err := s.writer.AssignIssue(ctx, issue.ProjectID, issue.IID, chosen.ID); err != nil {
			return fmt.Errorf("assign issue #%d in project %d: %w", issue.IID, issue.ProjectID, err)
		}
		s.logger.Info("assigned issue",
			"project_id", issue.ProjectID,
			"iid", issue.IID,
			"member_id", chosen.ID,
			"username", chosen.Username,
		)
	}

	return nil
}

// NotifyDue comments on assigned issues that are overdue, then on those due
// within days days.
func (s *IssueService) NotifyDue(ctx context.Context, days int) error {
	issues, err := s.client.FetchOpenIssues(ctx)
	if err != nil {
		return fmt.Errorf("fetch issues: %w", err)
	}

	overdue, dueSoon := ClassifyDueIssues(issues, s.now(), days)

	if err := s.nudge(ctx, overdue, true); err != nil {
		return err
	}
	return s.nudge(ctx, dueSoon, false)
}

func (s *IssueService) nudge(ctx context.Context, issues []model.Issue, overdue bool) error {
	for _, issue := range issues {
		body := IssueNudge(issue, overdue)
		if err := s.writer.CommentOnIssue(ctx, issue.ProjectID, issue.IID, body); err != nil {
			return fmt.Errorf("comment on issue #%d in project %d: %w", issue.IID, issue.ProjectID, err)
		}
		s.logger.Info("nudged issue assignees",
			"project_id", issue.ProjectID,
			"iid", issue.IID,
			"overdue", overdue,
			"due_date", issue.DueDateRaw,
		)
	}
	return nil
}

// ClassifyDueIssues splits the assigned, due-dated issues into those whose due
// day has fully elapsed and those due at least a day but less than days days
// from now. Issues fitting neither class, and issues without an assignee or
// due date, are left out. Input order is preserved within each class.
func ClassifyDueIssues(issues []model.Issue, now time.Time, days int) (overdue, dueSoon []model.Issue) {
	window := daysToDuration(days)

	for _, issue := range issues {
		if !issue.IsAssigned() || !issue.HasDueDate() {
			continue
		}

		switch remaining := issue.DueDate.Sub(now); {
		case -remaining >= 24*time.Hour:
			overdue = append(overdue, issue)
		case remaining >= 24*time.Hour && remaining < window:
			dueSoon = append(dueSoon, issue)
		}
	}

	return overdue, dueSoon
}

// IssueNudge renders the reminder posted on an overdue or upcoming issue.
func IssueNudge(issue model.Issue, overdue bool) string {
	responsible := issue.Responsible()

	mentions := make([]string, len(responsible))
	for i, m := range responsible {
		mentions[i] = "@" + m.Username
	}

	noun := "user"
	if len(mentions) > 1 {
		noun = "users"
	}

	tense := "is due on"
	if overdue {
		tense = "was due on"
	}

	return fmt.Sprintf("Nudging %s %s - this issue %s %s.",
		noun, strings.Join(mentions, ", "), tense, issue.DueDateRaw)
}
