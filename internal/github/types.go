// Package github provides a client and data types for the subset of the
// GitHub REST API used by release automation: milestone-filtered pull
// request listings, open-issue listings, commit attribution and release
// checklist issue creation.
package github

import (
	"net/http"
	"time"
)

// API configuration constants.
const (
	// DefaultAPIEndpoint is the GitHub REST API base URL.
	DefaultAPIEndpoint = "https://api.github.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the maximum number of items to fetch per page.
	MaxPageSize = 100

	// MaxPages is the maximum number of pages to fetch before stopping.
	// This prevents infinite loops from malformed Link headers.
	MaxPages = 1000
)

// Client provides methods to interact with the GitHub REST API.
type Client struct {
	Token      string       // GitHub personal access token (empty for anonymous access)
	Owner      string       // Repository owner (user or org)
	Repo       string       // Repository name
	BaseURL    string       // API base URL (default: https://api.github.com)
	HTTPClient *http.Client // Optional custom HTTP client
}

// Issue represents an issue from the GitHub API. The issues endpoint also
// returns pull requests; PullRequest is non-nil for those.
type Issue struct {
	ID          int        `json:"id"`     // Global unique ID
	Number      int        `json:"number"` // Repository-scoped issue number
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	State       string     `json:"state"` // "open" or "closed"
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Labels      []Label    `json:"labels"`
	User        *User      `json:"user,omitempty"` // Author
	Milestone   *Milestone `json:"milestone,omitempty"`
	HTMLURL     string     `json:"html_url"`
	PullRequest *PullRef   `json:"pull_request,omitempty"` // Non-nil if this is a PR
}

// PullRef indicates an issue is actually a pull request.
type PullRef struct {
	URL string `json:"url,omitempty"`
}

// PullRequest represents a pull request from the GitHub API.
type PullRequest struct {
	ID        int        `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"` // "open" or "closed"
	CreatedAt *time.Time `json:"created_at"`
	MergedAt  *time.Time `json:"merged_at,omitempty"` // Non-nil once merged
	Labels    []Label    `json:"labels"`
	User      *User      `json:"user,omitempty"` // Author
	Milestone *Milestone `json:"milestone,omitempty"`
	HTMLURL   string     `json:"html_url"`
}

// Merged reports whether the pull request has been merged.
func (pr *PullRequest) Merged() bool {
	return pr.MergedAt != nil
}

// User represents a GitHub user.
type User struct {
	ID      int    `json:"id"`
	Login   string `json:"login"`
	HTMLURL string `json:"html_url,omitempty"`
}

// Label represents a GitHub label.
type Label struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

// Milestone represents a GitHub milestone.
type Milestone struct {
	ID     int    `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"` // "open" or "closed"
}

// LabelNames extracts label name strings from a slice of Label structs.
func LabelNames(labels []Label) []string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names
}
