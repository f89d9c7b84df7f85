package model

import "time"

// ActionKind identifies a mutating call made against GitLab.
type ActionKind string

const (
	ActionAssignMergeRequest   ActionKind = "assign_merge_request"
	ActionAssignIssue          ActionKind = "assign_issue"
	ActionCommentMergeRequest  ActionKind = "comment_merge_request"
	ActionCommentIssue         ActionKind = "comment_issue"
	ActionDeleteMergedBranches ActionKind = "delete_merged_branches"
)

// ActionResult is the part of a dispatch response the attendant inspects.
type ActionResult struct {
	StatusCode int
	Message    string // The response body's "message" field, if any.
}

// Action is one journaled dispatch. The journal is an audit trail only; no
// decision procedure reads it back.
type Action struct {
	ID          int64
	Kind        ActionKind
	ProjectID   int64
	TargetIID   int64  // Merge request or issue IID; zero for project-wide actions.
	MemberID    int64  // Assigned member; zero for comments and cleanup.
	Body        string // Comment body; empty for other kinds.
	Message     string // Response message, when the remote returned one.
	Error       string // Dispatch error text; empty on success.
	PerformedAt time.Time
}

// Succeeded reports whether the dispatch returned without error.
func (a Action) Succeeded() bool {
	return a.Error == ""
}
