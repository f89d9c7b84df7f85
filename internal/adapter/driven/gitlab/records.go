package gitlab

import (
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
)

// dueDateLayout is the format GitLab uses for issue due dates.
const dueDateLayout = "2006-01-02"

// GitLab API response types. Only the fields the attendant consumes are decoded.

type userJSON struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type projectJSON struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
}

type mergeRequestJSON struct {
	ID             int64     `json:"id"`
	IID            int64     `json:"iid"`
	ProjectID      int64     `json:"project_id"`
	Title          string    `json:"title"`
	CreatedAt      string    `json:"created_at"`
	WorkInProgress bool      `json:"work_in_progress"`
	Draft          bool      `json:"draft"`
	MergeStatus    string    `json:"merge_status"`
	WebURL         string    `json:"web_url"`
	Author         *userJSON `json:"author"`
	Assignee       *userJSON `json:"assignee"`
}

type issueJSON struct {
	ID        int64      `json:"id"`
	IID       int64      `json:"iid"`
	ProjectID int64      `json:"project_id"`
	Title     string     `json:"title"`
	DueDate   *string    `json:"due_date"`
	WebURL    string     `json:"web_url"`
	Assignee  *userJSON  `json:"assignee"`
	Assignees []userJSON `json:"assignees"`
}

type messageJSON struct {
	Message string `json:"message"`
}

type assignMergeRequestBody struct {
	AssigneeID int64 `json:"assignee_id"`
}

type assignIssueBody struct {
	AssigneeIDs []int64 `json:"assignee_ids"`
}

type noteBody struct {
	Body string `json:"body"`
}

var errMissingID = errors.New("missing id")

func mapProject(p projectJSON) (model.Project, error) {
	if p.ID == 0 {
		return model.Project{}, errMissingID
	}
	name := p.PathWithNamespace
	if name == "" {
		name = p.Name
	}
	return model.Project{ID: p.ID, Name: name}, nil
}

func mapMember(u userJSON) (model.Member, error) {
	if u.ID == 0 {
		return model.Member{}, errMissingID
	}
	return model.Member{ID: u.ID, Username: u.Username}, nil
}

// mapOptionalMember maps a nullable user reference. A reference without an ID
// is treated as absent.
func mapOptionalMember(u *userJSON) *model.Member {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &model.Member{ID: u.ID, Username: u.Username}
}

func mapMergeRequest(r mergeRequestJSON) (model.MergeRequest, error) {
	if r.IID == 0 {
		return model.MergeRequest{}, fmt.Errorf("merge request %d: missing iid", r.ID)
	}
	if r.ProjectID == 0 {
		return model.MergeRequest{}, fmt.Errorf("merge request %d: missing project_id", r.ID)
	}

	if r.Author == nil || r.Author.ID == 0 {
		return model.MergeRequest{}, fmt.Errorf("merge request %d: missing author", r.ID)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return model.MergeRequest{}, fmt.Errorf("merge request %d: parsing created_at %q: %w", r.ID, r.CreatedAt, err)
	}

	mr := model.MergeRequest{
		ID:             r.ID,
		IID:            r.IID,
		ProjectID:      r.ProjectID,
		Title:          r.Title,
		Assignee:       mapOptionalMember(r.Assignee),
		WorkInProgress: r.WorkInProgress || r.Draft,
		MergeStatus:    r.MergeStatus,
		CreatedAt:      createdAt,
		AuthorID:       r.Author.ID,
		CreatedAtRaw:   r.CreatedAt,
		WebURL:         r.WebURL,
	}
	return mr, nil
}

// mapIssue maps an issue record. An unparseable due date leaves the issue
// without a due date rather than rejecting it, so it can still be assigned.
func mapIssue(r issueJSON) (model.Issue, error) {
	if r.IID == 0 {
		return model.Issue{}, fmt.Errorf("issue %d: missing iid", r.ID)
	}
	if r.ProjectID == 0 {
		return model.Issue{}, fmt.Errorf("issue %d: missing project_id", r.ID)
	}

	issue := model.Issue{
		ID:        r.ID,
		IID:       r.IID,
		ProjectID: r.ProjectID,
		Title:     r.Title,
		Assignee:  mapOptionalMember(r.Assignee),
		WebURL:    r.WebURL,
	}

	for _, a := range r.Assignees {
		if a.ID == 0 {
			continue
		}
		issue.Assignees = append(issue.Assignees, model.Member{ID: a.ID, Username: a.Username})
	}

	if r.DueDate != nil && *r.DueDate != "" {
		if due, err := time.Parse(dueDateLayout, *r.DueDate); err == nil {
			issue.DueDate = due
			issue.DueDateRaw = *r.DueDate
		}
	}

	return issue, nil
}
