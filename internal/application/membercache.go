package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
	"github.com/ericfisherdev/gitlab-attendant/internal/domain/port/driven"
)

// memberCache memoizes project member lookups for the duration of a single
// procedure invocation. It is not safe for concurrent use and must not be
// kept across ticks.
type memberCache struct {
	client  driven.GitLabClient
	members map[int64][]model.Member
}

func newMemberCache(client driven.GitLabClient) *memberCache {
	return &memberCache{
		client:  client,
		members: make(map[int64][]model.Member),
	}
}

// get returns the members of projectID, fetching them on first use.
func (c *memberCache) get(ctx context.Context, projectID int64) ([]model.Member, error) {
	if members, ok := c.members[projectID]; ok {
		return members, nil
	}

	members, err := c.client.FetchProjectMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetch members of project %d: %w", projectID, err)
	}

	c.members[projectID] = members
	return members, nil
}

// pick selects one member uniformly at random. ok is false for an empty pool.
func pick(random driven.RandomSource, pool []model.Member) (model.Member, bool, error) {
	if len(pool) == 0 {
		return model.Member{}, false, nil
	}

	idx, err := random.Intn(len(pool))
	if err != nil {
		return model.Member{}, false, fmt.Errorf("pick member: %w", err)
	}

	return pool[idx], true, nil
}
