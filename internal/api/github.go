package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sonata-project/devkit/internal/models"
	"golang.org/x/oauth2"
)

const perPage = 100

// PullRequestLister lists the open pull requests of a repository
type PullRequestLister interface {
	ListOpenPullRequests(ctx context.Context, repo models.Repository) ([]models.PullRequest, error)
}

// GitHubClient represents a client for the GitHub REST API
type GitHubClient struct {
	client  *github.Client
	timeout time.Duration
	lister  PullRequestLister
}

// Option configures a GitHubClient
type Option func(*GitHubClient) error

// WithBaseURL points the client at another API root, e.g. GitHub Enterprise
func WithBaseURL(rawURL string) Option {
	return func(c *GitHubClient) error {
		if !strings.HasSuffix(rawURL, "/") {
			rawURL += "/"
		}
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid API URL %q: %w", rawURL, err)
		}
		c.client.BaseURL = u
		return nil
	}
}

// WithRequestTimeout bounds every single API call
func WithRequestTimeout(d time.Duration) Option {
	return func(c *GitHubClient) error {
		c.timeout = d
		return nil
	}
}

// WithPullRequestLister delegates pull request listing, e.g. to the GraphQL client
func WithPullRequestLister(l PullRequestLister) Option {
	return func(c *GitHubClient) error {
		c.lister = l
		return nil
	}
}

// NewGitHubClient creates a new GitHub API client
func NewGitHubClient(token string, opts ...Option) (*GitHubClient, error) {
	var tc *http.Client

	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc = oauth2.NewClient(context.Background(), ts)
	}

	c := &GitHubClient{client: github.NewClient(tc)}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *GitHubClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// ListOpenPullRequests gets all open pull requests of a repository. Unless a
// lister is configured, the mergeable state is left for GetPullRequest.
func (c *GitHubClient) ListOpenPullRequests(ctx context.Context, repo models.Repository) ([]models.PullRequest, error) {
	if c.lister != nil {
		return c.lister.ListOpenPullRequests(ctx, repo)
	}

	const op = "list pull requests"

	var result []models.PullRequest
	opts := &github.PullRequestListOptions{
		State: "open",
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	for {
		callCtx, cancel := c.withTimeout(ctx)
		prs, resp, err := c.client.PullRequests.List(callCtx, repo.Owner, repo.Name, opts)
		cancel()
		if err != nil {
			return nil, wrap(op, err)
		}

		// The list endpoint never computes mergeability, only the single PR endpoint does.
		for _, pr := range prs {
			result = append(result, models.PullRequest{
				Number:      pr.GetNumber(),
				Title:       pr.GetTitle(),
				NeedsDetail: true,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return result, nil
}

// GetPullRequest gets a single pull request
func (c *GitHubClient) GetPullRequest(ctx context.Context, repo models.Repository, number int) (models.PullRequest, error) {
	callCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	pr, _, err := c.client.PullRequests.Get(callCtx, repo.Owner, repo.Name, number)
	if err != nil {
		return models.PullRequest{}, wrap(fmt.Sprintf("get pull request #%d", number), err)
	}

	return ConvertGitHubPullRequest(pr), nil
}

// ListIssueComments gets all comments of an issue or pull request
func (c *GitHubClient) ListIssueComments(ctx context.Context, repo models.Repository, number int) ([]models.Comment, error) {
	op := fmt.Sprintf("list comments of #%d", number)

	var allComments []models.Comment
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	for {
		callCtx, cancel := c.withTimeout(ctx)
		comments, resp, err := c.client.Issues.ListComments(callCtx, repo.Owner, repo.Name, number, opts)
		cancel()
		if err != nil {
			return nil, wrap(op, err)
		}

		for _, comment := range comments {
			converted, err := ConvertGitHubComment(comment)
			if err != nil {
				return nil, &Error{Kind: KindData, Op: op, Err: err}
			}
			allComments = append(allComments, converted)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allComments, nil
}

// LatestCommit gets the last commit of a pull request
func (c *GitHubClient) LatestCommit(ctx context.Context, repo models.Repository, number int) (models.Commit, error) {
	op := fmt.Sprintf("list commits of #%d", number)

	var last *github.RepositoryCommit
	opts := &github.ListOptions{PerPage: perPage}

	for {
		callCtx, cancel := c.withTimeout(ctx)
		commits, resp, err := c.client.PullRequests.ListCommits(callCtx, repo.Owner, repo.Name, number, opts)
		cancel()
		if err != nil {
			return models.Commit{}, wrap(op, err)
		}

		if len(commits) > 0 {
			last = commits[len(commits)-1]
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if last == nil {
		return models.Commit{}, &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf("pull request has no commits")}
	}

	commit, err := ConvertGitHubCommit(last)
	if err != nil {
		return models.Commit{}, &Error{Kind: KindData, Op: op, Err: err}
	}
	return commit, nil
}

// CreateComment posts a comment on an issue or pull request
func (c *GitHubClient) CreateComment(ctx context.Context, repo models.Repository, number int, body string) error {
	callCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, _, err := c.client.Issues.CreateComment(callCtx, repo.Owner, repo.Name, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return wrap(fmt.Sprintf("create comment on #%d", number), err)
	}
	return nil
}

// AddLabel adds a label to an issue or pull request, a no-op if it is already present
func (c *GitHubClient) AddLabel(ctx context.Context, repo models.Repository, number int, label models.Label) error {
	callCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, _, err := c.client.Issues.AddLabelsToIssue(callCtx, repo.Owner, repo.Name, number, []string{string(label)})
	if err != nil {
		return wrap(fmt.Sprintf("add label %s to #%d", label, number), err)
	}
	return nil
}

// ConvertGitHubPullRequest converts a GitHub pull request to our model
func ConvertGitHubPullRequest(pr *github.PullRequest) models.PullRequest {
	return models.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Mergeable: models.MergeableFromBool(pr.Mergeable),
	}
}

// ConvertGitHubComment converts a GitHub comment to our model
func ConvertGitHubComment(comment *github.IssueComment) (models.Comment, error) {
	login := comment.GetUser().GetLogin()
	if login == "" {
		return models.Comment{}, fmt.Errorf("comment %d has no author", comment.GetID())
	}
	if comment.CreatedAt == nil || comment.CreatedAt.IsZero() {
		return models.Comment{}, fmt.Errorf("comment %d has no creation date", comment.GetID())
	}

	return models.Comment{
		Author:    login,
		CreatedAt: comment.CreatedAt.Time.UTC(),
	}, nil
}

// ConvertGitHubCommit converts a GitHub pull request commit to our model
func ConvertGitHubCommit(commit *github.RepositoryCommit) (models.Commit, error) {
	committer := commit.GetCommit().GetCommitter()
	if committer == nil || committer.Date == nil || committer.Date.IsZero() {
		return models.Commit{}, fmt.Errorf("commit %s has no committer date", commit.GetSHA())
	}

	return models.Commit{
		SHA:         commit.GetSHA(),
		CommittedAt: committer.Date.Time.UTC(),
	}, nil
}
