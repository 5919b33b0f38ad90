package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sonata-project/devkit/internal/models"
)

var testRepo = models.Repository{Owner: "sonata-project", Name: "SonataAdminBundle"}

func newTestClient(t *testing.T, mux *http.ServeMux) *GitHubClient {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewGitHubClient("", WithBaseURL(server.URL), WithRequestTimeout(5*time.Second))
	require.NoError(t, err)
	return client
}

func nextPageLink(r *http.Request, page int) string {
	return fmt.Sprintf(`<http://%s%s?page=%d>; rel="next"`, r.Host, r.URL.Path, page)
}

func TestListOpenPullRequests_TraversesAllPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/pulls", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "open", r.URL.Query().Get("state"))
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"number":3,"title":"Pending"}]`)
			return
		}
		w.Header().Set("Link", nextPageLink(r, 2))
		fmt.Fprint(w, `[{"number":1,"title":"Clean"},{"number":2,"title":"Conflicting"}]`)
	})

	client := newTestClient(t, mux)

	prs, err := client.ListOpenPullRequests(context.Background(), testRepo)
	require.NoError(t, err)
	require.Equal(t, []models.PullRequest{
		{Number: 1, Title: "Clean", NeedsDetail: true},
		{Number: 2, Title: "Conflicting", NeedsDetail: true},
		{Number: 3, Title: "Pending", NeedsDetail: true},
	}, prs)
}

func TestGetPullRequest_MergeableState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/pulls/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number":1,"title":"Clean","mergeable":true}`)
	})
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/pulls/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number":2,"title":"Conflicting","mergeable":false}`)
	})
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/pulls/3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number":3,"title":"Pending","mergeable":null}`)
	})

	client := newTestClient(t, mux)

	tests := []struct {
		number int
		want   models.PullRequest
	}{
		{1, models.PullRequest{Number: 1, Title: "Clean", Mergeable: models.MergeableClean}},
		{2, models.PullRequest{Number: 2, Title: "Conflicting", Mergeable: models.MergeableConflicting}},
		{3, models.PullRequest{Number: 3, Title: "Pending", Mergeable: models.MergeableUnknown}},
	}

	for _, tt := range tests {
		got, err := client.GetPullRequest(context.Background(), testRepo, tt.number)
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}

func TestGetPullRequest_MalformedTimestamp(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/pulls/41", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number":41,"title":"Broken","mergeable":false,"created_at":"yesterday"}`)
	})

	client := newTestClient(t, mux)

	_, err := client.GetPullRequest(context.Background(), testRepo, 41)
	require.Error(t, err)
	require.True(t, IsData(err))
	require.Contains(t, err.Error(), "get pull request #41")
}

func TestListOpenPullRequests_TransportError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/pulls", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Server Error"}`, http.StatusInternalServerError)
	})

	client := newTestClient(t, mux)

	_, err := client.ListOpenPullRequests(context.Background(), testRepo)
	require.Error(t, err)
	require.Equal(t, KindTransport, KindOf(err))
}

func TestListIssueComments_TraversesAllPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"id":3,"user":{"login":"SonataCI"},"created_at":"2023-01-06T00:00:00Z"}]`)
			return
		}
		w.Header().Set("Link", nextPageLink(r, 2))
		fmt.Fprint(w, `[
			{"id":1,"user":{"login":"alice"},"created_at":"2023-01-01T00:00:00Z"},
			{"id":2,"user":{"login":"SonataCI"},"created_at":"2023-01-02T01:00:00+01:00"}
		]`)
	})

	client := newTestClient(t, mux)

	comments, err := client.ListIssueComments(context.Background(), testRepo, 42)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	require.Equal(t, "SonataCI", comments[2].Author)
	require.Equal(t, time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC), comments[2].CreatedAt)
	// offsets are normalized to UTC
	require.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), comments[1].CreatedAt)
	require.Equal(t, time.UTC, comments[1].CreatedAt.Location())
}

func TestListIssueComments_MalformedTimestamp(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"user":{"login":"SonataCI"},"created_at":"yesterday"}]`)
	})

	client := newTestClient(t, mux)

	_, err := client.ListIssueComments(context.Background(), testRepo, 42)
	require.Error(t, err)
	require.True(t, IsData(err), "got %v", err)
}

func TestListIssueComments_MissingAuthor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"created_at":"2023-01-01T00:00:00Z"}]`)
	})

	client := newTestClient(t, mux)

	_, err := client.ListIssueComments(context.Background(), testRepo, 42)
	require.True(t, IsData(err), "got %v", err)
}

func TestLatestCommit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/pulls/42/commits", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"sha":"bbb","commit":{"committer":{"date":"2023-01-05T10:00:00Z"}}}]`)
			return
		}
		w.Header().Set("Link", nextPageLink(r, 2))
		fmt.Fprint(w, `[{"sha":"aaa","commit":{"committer":{"date":"2023-01-01T10:00:00Z"}}}]`)
	})

	client := newTestClient(t, mux)

	commit, err := client.LatestCommit(context.Background(), testRepo, 42)
	require.NoError(t, err)
	require.Equal(t, models.Commit{
		SHA:         "bbb",
		CommittedAt: time.Date(2023, 1, 5, 10, 0, 0, 0, time.UTC),
	}, commit)
}

func TestLatestCommit_NoCommits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/pulls/42/commits", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	client := newTestClient(t, mux)

	_, err := client.LatestCommit(context.Background(), testRepo, 42)
	require.True(t, IsNotFound(err), "got %v", err)
}

func TestLatestCommit_MissingCommitterDate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/pulls/42/commits", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"sha":"aaa","commit":{}}]`)
	})

	client := newTestClient(t, mux)

	_, err := client.LatestCommit(context.Background(), testRepo, 42)
	require.True(t, IsData(err), "got %v", err)
}

func TestCreateCommentAndAddLabel(t *testing.T) {
	var calls []string

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		calls = append(calls, "comment:"+body["body"])
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1}`)
	})
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/issues/42/labels", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var labels []string
		require.NoError(t, json.Unmarshal(raw, &labels))
		calls = append(calls, "label:"+labels[0])
		fmt.Fprint(w, `[{"name":"PendingAuthor"}]`)
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	require.NoError(t, client.CreateComment(ctx, testRepo, 42, "hello"))
	require.NoError(t, client.AddLabel(ctx, testRepo, 42, models.LabelPendingAuthor))
	require.Equal(t, []string{"comment:hello", "label:PendingAuthor"}, calls)
}

func TestRequestTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/sonata-project/SonataAdminBundle/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewGitHubClient("", WithBaseURL(server.URL), WithRequestTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = client.GetPullRequest(context.Background(), testRepo, 42)
	require.Error(t, err)
	require.Equal(t, KindTransport, KindOf(err))
}

type stubLister struct{ prs []models.PullRequest }

func (s stubLister) ListOpenPullRequests(context.Context, models.Repository) ([]models.PullRequest, error) {
	return s.prs, nil
}

func TestWithPullRequestLister_Delegates(t *testing.T) {
	want := []models.PullRequest{{Number: 7, Title: "From GraphQL", Mergeable: models.MergeableConflicting}}

	client, err := NewGitHubClient("token", WithPullRequestLister(stubLister{prs: want}))
	require.NoError(t, err)

	prs, err := client.ListOpenPullRequests(context.Background(), testRepo)
	require.NoError(t, err)
	require.Equal(t, want, prs)
}
