package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
	"github.com/ericfisherdev/gitlab-attendant/internal/domain/port/driven"
)

// JournalingWriter decorates a GitLabWriter, recording every dispatch in an
// ActionJournal. Journal failures are logged and never returned.
type JournalingWriter struct {
	next    driven.GitLabWriter
	journal driven.ActionJournal
	logger  *slog.Logger
	now     func() time.Time
}

var _ driven.GitLabWriter = (*JournalingWriter)(nil)

// NewJournalingWriter wraps next. A nil now uses time.Now.
func NewJournalingWriter(next driven.GitLabWriter, journal driven.ActionJournal, logger *slog.Logger, now func() time.Time) *JournalingWriter {
	if now == nil {
		now = time.Now
	}
	return &JournalingWriter{next: next, journal: journal, logger: logger, now: now}
}

// AssignMergeRequest implements driven.GitLabWriter.
func (w *JournalingWriter) AssignMergeRequest(ctx context.Context, projectID, mergeRequestIID, memberID int64) error {
	err := w.next.AssignMergeRequest(ctx, projectID, mergeRequestIID, memberID)
	w.record(ctx, model.Action{
		Kind:      model.ActionAssignMergeRequest,
		ProjectID: projectID,
		TargetIID: mergeRequestIID,
		MemberID:  memberID,
	}, err)
	return err
}

// AssignIssue implements driven.GitLabWriter.
func (w *JournalingWriter) AssignIssue(ctx context.Context, projectID, issueIID, memberID int64) error {
	err := w.next.AssignIssue(ctx, projectID, issueIID, memberID)
	w.record(ctx, model.Action{
		Kind:      model.ActionAssignIssue,
		ProjectID: projectID,
		TargetIID: issueIID,
		MemberID:  memberID,
	}, err)
	return err
}

// CommentOnMergeRequest implements driven.GitLabWriter.
func (w *JournalingWriter) CommentOnMergeRequest(ctx context.Context, projectID, mergeRequestIID int64, body string) error {
	err := w.next.CommentOnMergeRequest(ctx, projectID, mergeRequestIID, body)
	w.record(ctx, model.Action{
		Kind:      model.ActionCommentMergeRequest,
		ProjectID: projectID,
		TargetIID: mergeRequestIID,
		Body:      body,
	}, err)
	return err
}

// CommentOnIssue implements driven.GitLabWriter.
func (w *JournalingWriter) CommentOnIssue(ctx context.Context, projectID, issueIID int64, body string) error {
	err := w.next.CommentOnIssue(ctx, projectID, issueIID, body)
	w.record(ctx, model.Action{
		Kind:      model.ActionCommentIssue,
		ProjectID: projectID,
		TargetIID: issueIID,
		Body:      body,
	}, err)
	return err
}

// DeleteMergedBranches implements driven.GitLabWriter.
func (w *JournalingWriter) DeleteMergedBranches(ctx context.Context, projectID int64) (model.ActionResult, error) {
	result, err := w.next.DeleteMergedBranches(ctx, projectID)
	w.record(ctx, model.Action{
		Kind:      model.ActionDeleteMergedBranches,
		ProjectID: projectID,
		Message:   result.Message,
	}, err)
	return result, err
}

func (w *JournalingWriter) record(ctx context.Context, action model.Action, dispatchErr error) {
	action.PerformedAt = w.now().UTC()
	if dispatchErr != nil {
		action.Error = dispatchErr.Error()
	}

	// The dispatch already happened; a canceled ctx must not lose the record.
	if err := w.journal.Record(context.WithoutCancel(ctx), action); err != nil {
		w.logger.Warn("failed to journal action",
			"kind", action.Kind,
			"project_id", action.ProjectID,
			"target_iid", action.TargetIID,
			"error", err,
		)
	}
}
