package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
	"github.com/ericfisherdev/gitlab-attendant/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitLabWriter = (*Client)(nil)

// Writes go through do directly: each is attempted exactly once.

// AssignMergeRequest sets the assignee of a merge request.
func (c *Client) AssignMergeRequest(ctx context.Context, projectID, mergeRequestIID, memberID int64) error {
	path := fmt.Sprintf("/projects/%d/merge_requests/%d", projectID, mergeRequestIID)
	if _, err := c.do(ctx, http.MethodPut, path, nil, assignMergeRequestBody{AssigneeID: memberID}, nil); err != nil {
		return fmt.Errorf("assigning merge request !%d of project %d to user %d: %w", mergeRequestIID, projectID, memberID, err)
	}
	return nil
}

// AssignIssue replaces the assignees of an issue with a single member.
func (c *Client) AssignIssue(ctx context.Context, projectID, issueIID, memberID int64) error {
	path := fmt.Sprintf("/projects/%d/issues/%d", projectID, issueIID)
	if _, err := c.do(ctx, http.MethodPut, path, nil, assignIssueBody{AssigneeIDs: []int64{memberID}}, nil); err != nil {
		return fmt.Errorf("assigning issue #%d of project %d to user %d: %w", issueIID, projectID, memberID, err)
	}
	return nil
}

// CommentOnMergeRequest adds a note to a merge request.
func (c *Client) CommentOnMergeRequest(ctx context.Context, projectID, mergeRequestIID int64, body string) error {
	path := fmt.Sprintf("/projects/%d/merge_requests/%d/notes", projectID, mergeRequestIID)
	if _, err := c.do(ctx, http.MethodPost, path, nil, noteBody{Body: body}, nil); err != nil {
		return fmt.Errorf("commenting on merge request !%d of project %d: %w", mergeRequestIID, projectID, err)
	}
	return nil
}

// CommentOnIssue adds a note to an issue.
func (c *Client) CommentOnIssue(ctx context.Context, projectID, issueIID int64, body string) error {
	path := fmt.Sprintf("/projects/%d/issues/%d/notes", projectID, issueIID)
	if _, err := c.do(ctx, http.MethodPost, path, nil, noteBody{Body: body}, nil); err != nil {
		return fmt.Errorf("commenting on issue #%d of project %d: %w", issueIID, projectID, err)
	}
	return nil
}

// DeleteMergedBranches schedules deletion of the project's merged branches.
// GitLab accepts the job with 202 and {"message": "202 Accepted"}. A refusal
// such as 403 {"message": "403 Forbidden"} is returned as a result, not an
// error; only transport failures are errors.
func (c *Client) DeleteMergedBranches(ctx context.Context, projectID int64) (model.ActionResult, error) {
	path := fmt.Sprintf("/projects/%d/repository/merged_branches", projectID)

	var msg messageJSON
	meta, err := c.do(ctx, http.MethodDelete, path, nil, nil, &msg)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return model.ActionResult{StatusCode: apiErr.StatusCode, Message: apiErr.Message}, nil
		}
		return model.ActionResult{}, fmt.Errorf("deleting merged branches of project %d: %w", projectID, err)
	}

	return model.ActionResult{StatusCode: meta.StatusCode, Message: msg.Message}, nil
}
