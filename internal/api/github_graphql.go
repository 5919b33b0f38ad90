package api

import (
	"context"
	"net/http"
	"time"

	"github.com/shurcooL/githubv4"
	"github.com/sonata-project/devkit/internal/models"
	"golang.org/x/oauth2"
)

// GraphQLClient represents a client for the GitHub GraphQL API
type GraphQLClient struct {
	client  *githubv4.Client
	timeout time.Duration
}

// NewGraphQLClient creates a new GraphQL client. An empty endpoint means
// github.com. A positive timeout bounds every single query.
func NewGraphQLClient(token, endpoint string, timeout time.Duration) *GraphQLClient {
	var httpClient *http.Client
	if token != "" {
		src := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), src)
	}

	c := &GraphQLClient{timeout: timeout}
	if endpoint == "" {
		c.client = githubv4.NewClient(httpClient)
	} else {
		c.client = githubv4.NewEnterpriseClient(endpoint, httpClient)
	}
	return c
}

func (c *GraphQLClient) query(ctx context.Context, q interface{}, variables map[string]interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.client.Query(ctx, q, variables)
}

// pullRequestNode is an open pull request in GraphQL
type pullRequestNode struct {
	Number    githubv4.Int
	Title     githubv4.String
	Mergeable githubv4.MergeableState
}

type pullRequestsQuery struct {
	Repository struct {
		PullRequests struct {
			Nodes    []pullRequestNode
			PageInfo struct {
				EndCursor   githubv4.String
				HasNextPage githubv4.Boolean
			}
		} `graphql:"pullRequests(first: $perPage, after: $cursor, states: OPEN)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// convertMergeableState maps the GraphQL enum onto our tri-state
func convertMergeableState(state githubv4.MergeableState) models.Mergeable {
	switch state {
	case githubv4.MergeableStateMergeable:
		return models.MergeableClean
	case githubv4.MergeableStateConflicting:
		return models.MergeableConflicting
	default:
		return models.MergeableUnknown
	}
}

// ListOpenPullRequests gets all open pull requests with their mergeable state in one paginated query
func (c *GraphQLClient) ListOpenPullRequests(ctx context.Context, repo models.Repository) ([]models.PullRequest, error) {
	const op = "query pull requests"

	variables := map[string]interface{}{
		"owner":   githubv4.String(repo.Owner),
		"name":    githubv4.String(repo.Name),
		"perPage": githubv4.Int(perPage),
		"cursor":  (*githubv4.String)(nil),
	}

	var result []models.PullRequest
	for {
		var query pullRequestsQuery
		if err := c.query(ctx, &query, variables); err != nil {
			return nil, wrap(op, err)
		}

		for _, node := range query.Repository.PullRequests.Nodes {
			if node.Number == 0 {
				return nil, dataError(op, "pull request node without number in %s", repo)
			}
			result = append(result, models.PullRequest{
				Number:    int(node.Number),
				Title:     string(node.Title),
				Mergeable: convertMergeableState(node.Mergeable),
			})
		}

		if !bool(query.Repository.PullRequests.PageInfo.HasNextPage) {
			break
		}
		variables["cursor"] = githubv4.NewString(query.Repository.PullRequests.PageInfo.EndCursor)
	}

	return result, nil
}
