package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// NewClient creates a new GitHub client. An empty token yields anonymous
// access, which is sufficient for read-only queries at a lower rate limit.
func NewClient(token, owner, repo string) *Client {
	return &Client{
		Token:   token,
		Owner:   owner,
		Repo:    repo,
		BaseURL: DefaultAPIEndpoint,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithHTTPClient returns a new client with a custom HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		Token:      c.Token,
		Owner:      c.Owner,
		Repo:       c.Repo,
		BaseURL:    c.BaseURL,
		HTTPClient: httpClient,
	}
}

// WithBaseURL returns a new client with a custom base URL (for testing or
// GitHub Enterprise).
func (c *Client) WithBaseURL(baseURL string) *Client {
	return &Client{
		Token:      c.Token,
		Owner:      c.Owner,
		Repo:       c.Repo,
		BaseURL:    baseURL,
		HTTPClient: c.HTTPClient,
	}
}

// repoPath returns the "owner/repo" path segment.
func (c *Client) repoPath() string {
	return c.Owner + "/" + c.Repo
}

// buildURL constructs a full API URL.
func (c *Client) buildURL(path string, params map[string]string) string {
	u := c.BaseURL + path

	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		u += "?" + values.Encode()
	}

	return u
}

// rateLimited reports whether the response signals GitHub rate limiting.
// GitHub uses 403 with X-RateLimit-Remaining: 0, or 429.
func rateLimited(resp *http.Response) bool {
	return resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0")
}

// doRequest performs an HTTP request with authentication, retrying
// rate-limited responses with exponential backoff.
func (c *Client) doRequest(ctx context.Context, method, urlStr string, body interface{}) ([]byte, http.Header, error) {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	type response struct {
		body    []byte
		headers http.Header
	}

	operation := func() (response, error) {
		var reqBody io.Reader
		if jsonBody != nil {
			reqBody = bytes.NewReader(jsonBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
		if err != nil {
			return response{}, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return response{}, fmt.Errorf("request failed: %w", err)
		}

		const maxResponseSize = 50 * 1024 * 1024
		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		_ = resp.Body.Close()
		if err != nil {
			return response{}, fmt.Errorf("failed to read response: %w", err)
		}

		if rateLimited(resp) {
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := strconv.Atoi(retryAfter); err == nil {
					select {
					case <-ctx.Done():
						return response{}, backoff.Permanent(ctx.Err())
					case <-time.After(time.Duration(seconds) * time.Second):
					}
				}
			}
			return response{}, fmt.Errorf("rate limited (status %d)", resp.StatusCode)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return response{}, backoff.Permanent(fmt.Errorf("API error: %s (status %d)", string(respBody), resp.StatusCode))
		}

		return response{body: respBody, headers: resp.Header}, nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	resp, err := backoff.RetryWithData(operation, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, nil, err
	}
	return resp.body, resp.headers, nil
}

// linkNextPattern matches the "next" relation in GitHub Link headers.
var linkNextPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// hasNextPage checks the Link header for a next page URL and returns it.
func hasNextPage(headers http.Header) (string, bool) {
	link := headers.Get("Link")
	if link == "" {
		return "", false
	}
	matches := linkNextPattern.FindStringSubmatch(link)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// prCutoff bounds pull request pagination: once listings reach pull
// requests created before this date the remaining pages carry nothing a
// release could reference.
var prCutoff = time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)

// FetchMilestonePulls retrieves pull requests whose milestone title equals
// milestone. state can be "open" or "closed"; with "closed", only merged
// pull requests are returned. Listings are walked newest-first and stop at
// the pagination cutoff.
func (c *Client) FetchMilestonePulls(ctx context.Context, milestone, state string) ([]PullRequest, error) {
	var matched []PullRequest
	page := 1

	for {
		select {
		case <-ctx.Done():
			return matched, ctx.Err()
		default:
		}

		params := map[string]string{
			"state":     state,
			"per_page":  strconv.Itoa(MaxPageSize),
			"page":      strconv.Itoa(page),
			"sort":      "created",
			"direction": "desc",
		}
		urlStr := c.buildURL("/repos/"+c.repoPath()+"/pulls", params)
		respBody, headers, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch pull requests: %w", err)
		}

		var pulls []PullRequest
		if err := json.Unmarshal(respBody, &pulls); err != nil {
			return nil, fmt.Errorf("failed to parse pull requests response: %w", err)
		}

		reachedOld := false
		for i := range pulls {
			pr := &pulls[i]
			if pr.CreatedAt != nil && pr.CreatedAt.Before(prCutoff) {
				reachedOld = true
			}
			properState := state != "closed" || pr.Merged()
			if !properState || pr.Milestone == nil || pr.Milestone.Title != milestone {
				continue
			}
			matched = append(matched, *pr)
		}
		if reachedOld {
			break
		}

		if _, ok := hasNextPage(headers); !ok {
			break
		}
		page++

		if page > MaxPages {
			return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", MaxPages)
		}
	}

	return matched, nil
}

// FetchOpenIssues retrieves all open issues. Pull requests are included,
// matching GitHub's issues endpoint; callers that care can check the
// PullRequest field.
func (c *Client) FetchOpenIssues(ctx context.Context) ([]Issue, error) {
	var allIssues []Issue
	page := 1

	for {
		select {
		case <-ctx.Done():
			return allIssues, ctx.Err()
		default:
		}

		params := map[string]string{
			"state":    "open",
			"per_page": strconv.Itoa(MaxPageSize),
			"page":     strconv.Itoa(page),
		}
		urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues", params)
		respBody, headers, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch issues: %w", err)
		}

		var issues []Issue
		if err := json.Unmarshal(respBody, &issues); err != nil {
			return nil, fmt.Errorf("failed to parse issues response: %w", err)
		}
		allIssues = append(allIssues, issues...)

		if _, ok := hasNextPage(headers); !ok {
			break
		}
		page++

		if page > MaxPages {
			return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", MaxPages)
		}
	}

	return allIssues, nil
}

// PullsForCommit retrieves the pull requests associated with a commit.
func (c *Client) PullsForCommit(ctx context.Context, sha string) ([]PullRequest, error) {
	urlStr := c.buildURL("/repos/"+c.repoPath()+"/commits/"+sha+"/pulls", nil)
	respBody, _, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pulls for commit %s: %w", sha, err)
	}

	var pulls []PullRequest
	if err := json.Unmarshal(respBody, &pulls); err != nil {
		return nil, fmt.Errorf("failed to parse commit pulls response: %w", err)
	}
	return pulls, nil
}

// CreateIssue creates a new issue in GitHub.
func (c *Client) CreateIssue(ctx context.Context, title, body string) (*Issue, error) {
	reqBody := map[string]interface{}{
		"title": title,
		"body":  body,
	}

	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues", nil)
	respBody, _, err := c.doRequest(ctx, http.MethodPost, urlStr, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("failed to parse create response: %w", err)
	}

	return &issue, nil
}
