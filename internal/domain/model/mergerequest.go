package model

import "time"

// MergeStatusCanBeMerged is the merge_status value GitLab reports when the
// source branch merges cleanly into the target.
const MergeStatusCanBeMerged = "can_be_merged"

// MergeRequest represents an open GitLab merge request as consumed by the
// attendant's decision procedures.
type MergeRequest struct {
	ID             int64
	IID            int64 // Project-scoped ID used in API paths.
	ProjectID      int64
	Title          string
	AuthorID       int64
	Assignee       *Member // nil when unassigned.
	WorkInProgress bool    // Set for both legacy WIP and draft merge requests.
	MergeStatus    string
	CreatedAt      time.Time
	CreatedAtRaw   string // created_at exactly as received, quoted back in comments.
	WebURL         string
}

// IsAssigned reports whether the merge request has an assignee.
func (mr MergeRequest) IsAssigned() bool {
	return mr.Assignee != nil
}

// Age returns how long the merge request has been open at now.
func (mr MergeRequest) Age(now time.Time) time.Duration {
	return now.Sub(mr.CreatedAt)
}
