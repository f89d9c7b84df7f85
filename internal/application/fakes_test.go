package application_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
)

// --- Mock implementations ---

type mockGitLabClient struct {
	projects      []model.Project
	members       map[int64][]model.Member
	mergeRequests []model.MergeRequest
	issues        []model.Issue

	memberFetches map[int64]int
	fetchErr      error
}

func (m *mockGitLabClient) FetchProjects(_ context.Context) ([]model.Project, error) {
	return m.projects, m.fetchErr
}

func (m *mockGitLabClient) FetchProjectMembers(_ context.Context, projectID int64) ([]model.Member, error) {
	if m.memberFetches == nil {
		m.memberFetches = make(map[int64]int)
	}
	m.memberFetches[projectID]++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.members[projectID], nil
}

func (m *mockGitLabClient) FetchOpenMergeRequests(_ context.Context) ([]model.MergeRequest, error) {
	return m.mergeRequests, m.fetchErr
}

func (m *mockGitLabClient) FetchOpenIssues(_ context.Context) ([]model.Issue, error) {
	return m.issues, m.fetchErr
}

func (m *mockGitLabClient) CurrentUser(_ context.Context) (model.Member, error) {
	return model.Member{ID: 1, Username: "attendant"}, m.fetchErr
}

func (m *mockGitLabClient) totalMemberFetches() int {
	var n int
	for _, c := range m.memberFetches {
		n += c
	}
	return n
}

type assignCall struct {
	ProjectID int64
	IID       int64
	MemberID  int64
}

type commentCall struct {
	ProjectID int64
	IID       int64
	Body      string
}

type mockGitLabWriter struct {
	mrAssigns     []assignCall
	issueAssigns  []assignCall
	mrComments    []commentCall
	issueComments []commentCall
	deletes       []int64

	// deleteMessages maps project IDs to the cleanup response message;
	// projects not listed answer "202 Accepted".
	deleteMessages map[int64]string
	err            error
}

func (m *mockGitLabWriter) AssignMergeRequest(_ context.Context, projectID, iid, memberID int64) error {
	m.mrAssigns = append(m.mrAssigns, assignCall{ProjectID: projectID, IID: iid, MemberID: memberID})
	return m.err
}

func (m *mockGitLabWriter) AssignIssue(_ context.Context, projectID, iid, memberID int64) error {
	m.issueAssigns = append(m.issueAssigns, assignCall{ProjectID: projectID, IID: iid, MemberID: memberID})
	return m.err
}

func (m *mockGitLabWriter) CommentOnMergeRequest(_ context.Context, projectID, iid int64, body string) error {
	m.mrComments = append(m.mrComments, commentCall{ProjectID: projectID, IID: iid, Body: body})
	return m.err
}

func (m *mockGitLabWriter) CommentOnIssue(_ context.Context, projectID, iid int64, body string) error {
	m.issueComments = append(m.issueComments, commentCall{ProjectID: projectID, IID: iid, Body: body})
	return m.err
}

func (m *mockGitLabWriter) DeleteMergedBranches(_ context.Context, projectID int64) (model.ActionResult, error) {
	m.deletes = append(m.deletes, projectID)
	if m.err != nil {
		return model.ActionResult{}, m.err
	}
	msg, ok := m.deleteMessages[projectID]
	if !ok {
		msg = "202 Accepted"
	}
	return model.ActionResult{StatusCode: 202, Message: msg}, nil
}

// fixedRandom returns the same index every time, clamped to the pool size.
type fixedRandom struct {
	idx   int
	calls []int
}

func (r *fixedRandom) Intn(n int) (int, error) {
	r.calls = append(r.calls, n)
	if r.idx >= n {
		return n - 1, nil
	}
	return r.idx, nil
}

// --- Helpers ---

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// captureLogger returns a JSON logger writing into the returned buffer.
func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

// logEntries decodes every JSON line in buf.
func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func entriesAtLevel(entries []map[string]any, level string) []map[string]any {
	var out []map[string]any
	for _, e := range entries {
		if e["level"] == level {
			out = append(out, e)
		}
	}
	return out
}

func member(id int64, username string) model.Member {
	return model.Member{ID: id, Username: username}
}

func memberPtr(id int64, username string) *model.Member {
	m := member(id, username)
	return &m
}

func dueOn(d time.Time) (time.Time, string) {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return day, day.Format("2006-01-02")
}
