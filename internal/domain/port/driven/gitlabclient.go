package driven

import (
	"context"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
)

// GitLabClient defines the driven port for reading records from the GitLab API.
// Implementations retry transient failures; a returned error means the read is
// exhausted and the caller should treat it as fatal.
type GitLabClient interface {
	FetchProjects(ctx context.Context) ([]model.Project, error)
	FetchProjectMembers(ctx context.Context, projectID int64) ([]model.Member, error)
	FetchOpenMergeRequests(ctx context.Context) ([]model.MergeRequest, error)
	FetchOpenIssues(ctx context.Context) ([]model.Issue, error)

	// CurrentUser returns the user the configured token authenticates as.
	CurrentUser(ctx context.Context) (model.Member, error)
}
