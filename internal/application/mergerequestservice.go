package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
	"github.com/ericfisherdev/gitlab-attendant/internal/domain/port/driven"
)

// assignmentAge is how long a merge request must be open before it is
// assigned to a reviewer.
const assignmentAge = 24 * time.Hour

// MergeRequestService assigns reviewers to waiting merge requests and nudges
// assignees of merge requests that have been open too long.
type MergeRequestService struct {
	client driven.GitLabClient
	writer driven.GitLabWriter
	random driven.RandomSource
	logger *slog.Logger
	now    func() time.Time
}

// NewMergeRequestService creates a new MergeRequestService. A nil now uses
// time.Now.
func NewMergeRequestService(
	client driven.GitLabClient,
	writer driven.GitLabWriter,
	random driven.RandomSource,
	logger *slog.Logger,
	now func() time.Time,
) *MergeRequestService {
	if now == nil {
		now = time.Now
	}
	return &MergeRequestService{
		client: client,
		writer: writer,
		random: random,
		logger: logger,
		now:    now,
	}
}

// AssignStale assigns one random project member, never the author, to every
// merge request that is ready, unassigned and at least a day old.
func (s *MergeRequestService) AssignStale(ctx context.Context) error {
	mrs, err := s.client.FetchOpenMergeRequests(ctx)
	if err != nil {
		return fmt.Errorf("fetch merge requests: %w", err)
	}

	now := s.now()
	var eligible []model.MergeRequest
	for _, mr := range mrs {
		if EligibleForAssignment(mr, now) {
			eligible = append(eligible, mr)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	members := newMemberCache(s.client)
	for _, mr := range eligible {
		projectMembers, err := members.get(ctx, mr.ProjectID)
		if err != nil {
			return err
		}

		chosen, ok, err := pick(s.random, AssignmentCandidates(projectMembers, mr.AuthorID))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if err := s.writer.AssignMergeRequest(ctx, mr.ProjectID, mr.IID, chosen.ID); err != nil {
			return fmt.Errorf("assign merge request !%d in project %d: %w", mr.IID, mr.ProjectID, err)
		}
		s.logger.Info("assigned merge request",
			"project_id", mr.ProjectID,
			"iid", mr.IID,
			"member_id", chosen.ID,
			"username", chosen.Username,
		)
	}

	return nil
}

// NotifyStale comments on every ready, assigned merge request that has been
// open for at least days days.
func (s *MergeRequestService) NotifyStale(ctx context.Context, days int) error {
	mrs, err := s.client.FetchOpenMergeRequests(ctx)
	if err != nil {
		return fmt.Errorf("fetch merge requests: %w", err)
	}

	now := s.now()
	for _, mr := range mrs {
		if !StaleForNotification(mr, now, days) {
			continue
		}

		body := MergeRequestNudge(mr)
		if err := s.writer.CommentOnMergeRequest(ctx, mr.ProjectID, mr.IID, body); err != nil {
			return fmt.Errorf("comment on merge request !%d in project %d: %w", mr.IID, mr.ProjectID, err)
		}
		s.logger.Info("nudged merge request assignee",
			"project_id", mr.ProjectID,
			"iid", mr.IID,
			"username", mr.Assignee.Username,
		)
	}

	return nil
}

// EligibleForAssignment reports whether mr should be given an assignee: it is
// not a draft, has no assignee and has been open for at least 24 hours.
func EligibleForAssignment(mr model.MergeRequest, now time.Time) bool {
	return !mr.WorkInProgress && !mr.IsAssigned() && mr.Age(now) >= assignmentAge
}

// StaleForNotification reports whether the assignee of mr should be nudged.
func StaleForNotification(mr model.MergeRequest, now time.Time, days int) bool {
	return !mr.WorkInProgress && mr.IsAssigned() && mr.Age(now) >= daysToDuration(days)
}

// AssignmentCandidates returns members with the author removed. The input is
// not modified.
func AssignmentCandidates(members []model.Member, authorID int64) []model.Member {
	candidates := make([]model.Member, 0, len(members))
	for _, m := range members {
		if m.ID != authorID {
			candidates = append(candidates, m)
		}
	}
	return candidates
}

// MergeRequestNudge renders the reminder posted on a stale merge request.
func MergeRequestNudge(mr model.MergeRequest) string {
	var username string
	if mr.Assignee != nil {
		username = mr.Assignee.Username
	}

	outlook := "Merge conflicts exist."
	if mr.MergeStatus == model.MergeStatusCanBeMerged {
		outlook = "This could be merged without conflict."
	}

	return fmt.Sprintf("Nudging user @%s - this merge request has been open since %s. \n\n %s",
		username, mr.CreatedAtRaw, outlook)
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
