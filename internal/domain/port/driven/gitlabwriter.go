package driven

import (
	"context"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
)

// GitLabWriter defines the driven port for mutating calls against GitLab.
// It is intentionally separate from GitLabClient: writes are attempted exactly
// once and never retried.
type GitLabWriter interface {
	// AssignMergeRequest sets the single assignee of a merge request.
	AssignMergeRequest(ctx context.Context, projectID, mergeRequestIID, memberID int64) error

	// AssignIssue replaces the assignee list of an issue with the given member.
	AssignIssue(ctx context.Context, projectID, issueIID, memberID int64) error

	// CommentOnMergeRequest adds a note to a merge request.
	CommentOnMergeRequest(ctx context.Context, projectID, mergeRequestIID int64, body string) error

	// CommentOnIssue adds a note to an issue.
	CommentOnIssue(ctx context.Context, projectID, issueIID int64, body string) error

	// DeleteMergedBranches asks GitLab to delete every branch of the project
	// that has been merged into the default branch. GitLab processes the
	// request asynchronously and answers with a message.
	DeleteMergedBranches(ctx context.Context, projectID int64) (model.ActionResult, error)
}
