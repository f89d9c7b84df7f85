package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/gitlab-attendant/internal/application"
	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
)

func TestRemoveMerged_RejectionLoggedAndContinues(t *testing.T) {
	client := &mockGitLabClient{projects: []model.Project{
		{ID: 1, Name: "group/one"},
		{ID: 2, Name: "group/two"},
	}}
	writer := &mockGitLabWriter{deleteMessages: map[int64]string{2: "Something went wrong..."}}
	logger, buf := captureLogger()

	err := application.NewBranchService(client, writer, logger).RemoveMerged(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, writer.deletes)

	errs := entriesAtLevel(logEntries(t, buf), "ERROR")
	require.Len(t, errs, 1)
	assert.Equal(t, float64(2), errs[0]["project_id"])
	assert.Equal(t, "Something went wrong...", errs[0]["message"])
}

func TestRemoveMerged_RejectedFirstProjectStillCleansRest(t *testing.T) {
	client := &mockGitLabClient{projects: []model.Project{{ID: 1}, {ID: 2}, {ID: 3}}}
	writer := &mockGitLabWriter{deleteMessages: map[int64]string{1: "", 3: "202 accepted"}}
	logger, buf := captureLogger()

	require.NoError(t, application.NewBranchService(client, writer, logger).RemoveMerged(context.Background()))

	assert.Equal(t, []int64{1, 2, 3}, writer.deletes)
	assert.Len(t, entriesAtLevel(logEntries(t, buf), "ERROR"), 2, "message must match exactly")
}

func TestRemoveMerged_TransportErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	client := &mockGitLabClient{projects: []model.Project{{ID: 1}, {ID: 2}}}
	writer := &mockGitLabWriter{err: boom}

	err := application.NewBranchService(client, writer, discardLogger()).RemoveMerged(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int64{1}, writer.deletes)
}
