package model

// Project represents a GitLab project visible to the attendant's token.
type Project struct {
	ID   int64
	Name string
}

// Member represents a project member. Identity is ID; Username is only used
// when addressing the member in a comment.
type Member struct {
	ID       int64
	Username string
}
