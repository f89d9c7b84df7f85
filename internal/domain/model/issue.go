package model

import "time"

// Issue represents an open GitLab issue. GitLab reports responsibility both
// through the legacy single Assignee field and the Assignees list; an issue is
// unassigned only when both are empty.
type Issue struct {
	ID         int64
	IID        int64 // Project-scoped ID used in API paths.
	ProjectID  int64
	Title      string
	Assignee   *Member
	Assignees  []Member
	DueDate    time.Time // Midnight UTC of the due day; zero when unset.
	DueDateRaw string    // due_date exactly as received (YYYY-MM-DD).
	WebURL     string
}

// IsAssigned reports whether either assignee representation is populated.
func (i Issue) IsAssigned() bool {
	return i.Assignee != nil || len(i.Assignees) > 0
}

// HasDueDate reports whether the issue carries a due date.
func (i Issue) HasDueDate() bool {
	return !i.DueDate.IsZero()
}

// Responsible returns the members to address about the issue, preferring the
// Assignees list and falling back to the legacy Assignee field.
func (i Issue) Responsible() []Member {
	if len(i.Assignees) > 0 {
		return i.Assignees
	}
	if i.Assignee != nil {
		return []Member{*i.Assignee}
	}
	return nil
}
