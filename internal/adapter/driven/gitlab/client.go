// Package gitlab implements the GitLabClient and GitLabWriter ports against the
// GitLab REST API v4.
package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
	"github.com/ericfisherdev/gitlab-attendant/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitLabClient = (*Client)(nil)

const (
	apiPath = "/api/v4"
	perPage = 100

	defaultReadAttempts    = 5
	defaultInitialInterval = 100 * time.Millisecond

	// maintainerAccess is GitLab's Maintainer access level, the minimum
	// needed to delete merged branches.
	maintainerAccess = "40"
)

// Client implements the driven.GitLabClient and driven.GitLabWriter ports.
type Client struct {
	http         *http.Client
	baseURL      *url.URL // Includes the /api/v4 prefix.
	logger       *slog.Logger
	readAttempts int
	initialWait  time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithRetryPolicy overrides the read-path retry policy: the total number of
// attempts per page and the first backoff interval, which doubles per retry.
func WithRetryPolicy(attempts int, initial time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.readAttempts = attempts
		}
		if initial > 0 {
			c.initialWait = initial
		}
	}
}

// NewClient creates a GitLab API client with the following transport stack:
//  1. oauth2 (static bearer token, accepted by GitLab for personal access tokens)
//  2. httpcache (ETag-based conditional request caching for list reads)
//  3. http.DefaultTransport
func NewClient(host, token string, logger *slog.Logger, opts ...Option) (*Client, error) {
	base, err := BaseURL(host)
	if err != nil {
		return nil, err
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	authTransport := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		Base:   cacheTransport,
	}
	httpClient := &http.Client{
		Transport: authTransport,
		Timeout:   30 * time.Second,
	}

	return newClient(httpClient, base, logger, opts...), nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and host.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, host string, logger *slog.Logger, opts ...Option) (*Client, error) {
	base, err := BaseURL(host)
	if err != nil {
		return nil, err
	}
	return newClient(httpClient, base, logger, opts...), nil
}

func newClient(httpClient *http.Client, base *url.URL, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		http:         httpClient,
		baseURL:      base,
		logger:       logger,
		readAttempts: defaultReadAttempts,
		initialWait:  defaultInitialInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL derives the API base URL from a configured host. A bare host or IP
// address is treated as plain HTTP, matching how the attendant has always been
// pointed at self-hosted instances.
func BaseURL(host string) (*url.URL, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, errors.New("gitlab host is empty")
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parsing gitlab host %q: %w", host, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("gitlab host %q has no hostname", host)
	}

	u.Path = strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(u.Path, apiPath) {
		u.Path += apiPath
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// FetchProjects retrieves the projects the token's user maintains. Public and
// internal projects the user merely can see are not listed.
func (c *Client) FetchProjects(ctx context.Context) ([]model.Project, error) {
	query := url.Values{"membership": {"true"}, "min_access_level": {maintainerAccess}}
	raw, err := getAll[projectJSON](ctx, c, "/projects", query)
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}

	projects := make([]model.Project, 0, len(raw))
	for _, p := range raw {
		project, err := mapProject(p)
		if err != nil {
			c.logger.Warn("dropping malformed project record", "error", err)
			continue
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// FetchProjectMembers retrieves the direct members of a project.
func (c *Client) FetchProjectMembers(ctx context.Context, projectID int64) ([]model.Member, error) {
	path := fmt.Sprintf("/projects/%d/members", projectID)
	raw, err := getAll[userJSON](ctx, c, path, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching members of project %d: %w", projectID, err)
	}

	members := make([]model.Member, 0, len(raw))
	for _, u := range raw {
		member, err := mapMember(u)
		if err != nil {
			c.logger.Warn("dropping malformed member record", "project_id", projectID, "error", err)
			continue
		}
		members = append(members, member)
	}
	return members, nil
}

// FetchOpenMergeRequests retrieves all open merge requests across every
// project the token can see.
func (c *Client) FetchOpenMergeRequests(ctx context.Context) ([]model.MergeRequest, error) {
	query := url.Values{"state": {"opened"}, "scope": {"all"}}
	raw, err := getAll[mergeRequestJSON](ctx, c, "/merge_requests", query)
	if err != nil {
		return nil, fmt.Errorf("fetching open merge requests: %w", err)
	}

	mrs := make([]model.MergeRequest, 0, len(raw))
	for _, r := range raw {
		mr, err := mapMergeRequest(r)
		if err != nil {
			c.logger.Warn("dropping malformed merge request record", "id", r.ID, "error", err)
			continue
		}
		mrs = append(mrs, mr)
	}
	return mrs, nil
}

// FetchOpenIssues retrieves all open issues across every project the token can see.
func (c *Client) FetchOpenIssues(ctx context.Context) ([]model.Issue, error) {
	query := url.Values{"state": {"opened"}, "scope": {"all"}}
	raw, err := getAll[issueJSON](ctx, c, "/issues", query)
	if err != nil {
		return nil, fmt.Errorf("fetching open issues: %w", err)
	}

	issues := make([]model.Issue, 0, len(raw))
	for _, r := range raw {
		issue, err := mapIssue(r)
		if err != nil {
			c.logger.Warn("dropping malformed issue record", "id", r.ID, "error", err)
			continue
		}
		if r.DueDate != nil && *r.DueDate != "" && !issue.HasDueDate() {
			c.logger.Warn("ignoring unparseable issue due date", "id", r.ID, "due_date", *r.DueDate)
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// CurrentUser returns the user the token authenticates as.
func (c *Client) CurrentUser(ctx context.Context) (model.Member, error) {
	var u userJSON
	if _, err := c.get(ctx, "/user", nil, &u); err != nil {
		return model.Member{}, fmt.Errorf("fetching current user: %w", err)
	}
	return mapMember(u)
}

// getAll walks every page of a list endpoint, following X-Next-Page.
func getAll[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T
	page := 1

	for {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))

		var batch []T
		meta, err := c.get(ctx, path, q, &batch)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		c.logger.Debug("gitlab page fetched", "path", path, "page", page, "count", len(batch))
		all = append(all, batch...)

		next, err := strconv.Atoi(meta.Header.Get("X-Next-Page"))
		if err != nil || next <= page {
			break
		}
		page = next
	}

	return all, nil
}

// get performs a read with the bounded exponential retry policy. Network
// errors, 429 and 5xx responses are retried; other statuses fail at once.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) (responseMeta, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialWait
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0

	var meta responseMeta
	attempt := 0
	operation := func() error {
		attempt++
		m, err := c.do(ctx, http.MethodGet, path, query, nil, out)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.Retryable() {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		meta = m
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("gitlab read failed, retrying",
			"path", path,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	retries := uint64(c.readAttempts - 1)
	b := backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return responseMeta{}, err
	}
	return meta, nil
}

// responseMeta carries the response fields callers inspect after the body has
// been decoded and closed.
type responseMeta struct {
	StatusCode int
	Header     http.Header
}

// do performs exactly one HTTP round trip. A non-2xx status is returned as an
// *APIError. When out is non-nil a non-empty body is decoded into it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (responseMeta, error) {
	endpoint := *c.baseURL
	endpoint.Path = c.baseURL.Path + path
	endpoint.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return responseMeta{}, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return responseMeta{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return responseMeta{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return responseMeta{}, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("gitlab api call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(data),
		"cached", resp.Header.Get(httpcache.XFromCache) != "",
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseMeta{}, newAPIError(method, path, resp.StatusCode, data)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return responseMeta{}, fmt.Errorf("decoding response: %w", err)
		}
	}

	return responseMeta{StatusCode: resp.StatusCode, Header: resp.Header}, nil
}
