// Package remote implements the hosting-service API client used by the
// reconciler: paginated open pull request listings and team rosters.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/triageops/reviewqueue/internal/config"
	pullrequestModel "github.com/triageops/reviewqueue/internal/pullrequest/model"
)

// Team is a roster entry from the hosting service.
type Team struct {
	Name    string   `json:"name"`
	Members []Member `json:"members"`
	Repos   []string `json:"repos"`
}

// Member is one reviewer in a team roster.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Client defines the outbound calls the reconciler depends on.
type Client interface {
	// ListOpenPullRequestsPage fetches one page of open pull requests
	// for a repository. hasMore reports whether another page follows.
	ListOpenPullRequestsPage(
		ctx context.Context,
		repo string,
		page, perPage int,
	) (items []pullrequestModel.Update, hasMore bool, err error)

	// ListTeams fetches the full team roster.
	ListTeams(ctx context.Context) ([]Team, error)
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.SugaredLogger
}

// New creates a new hosting-service API client.
func New(cfg *config.RemoteConfig, logger *zap.SugaredLogger) Client {
	return &client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger,
	}
}

// pullRequestItem is the wire shape of one listed pull request.
type pullRequestItem struct {
	Number    int64     `json:"number"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    struct {
		ID string `json:"id"`
	} `json:"author"`
	Assignees []struct {
		ID string `json:"id"`
	} `json:"assignees"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

// ListOpenPullRequestsPage fetches one page of open pull requests.
func (c *client) ListOpenPullRequestsPage(
	ctx context.Context,
	repo string,
	page, perPage int,
) ([]pullrequestModel.Update, bool, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/pulls", c.baseURL, url.PathEscape(repo))
	query := url.Values{}
	query.Set("state", "open")
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	var items []pullRequestItem
	if err := c.getJSON(ctx, endpoint+"?"+query.Encode(), &items); err != nil {
		return nil, false, err
	}

	updates := make([]pullrequestModel.Update, 0, len(items))
	for _, item := range items {
		upd := pullrequestModel.Update{
			Repo:      repo,
			Number:    item.Number,
			AuthorID:  item.Author.ID,
			State:     pullrequestModel.StateOpen,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		}
		for _, a := range item.Assignees {
			upd.Assignees = append(upd.Assignees, a.ID)
		}
		for _, l := range item.Labels {
			upd.Labels = append(upd.Labels, l.Name)
		}
		updates = append(updates, upd)
	}

	return updates, len(items) == perPage, nil
}

// ListTeams fetches the full team roster.
func (c *client) ListTeams(ctx context.Context) ([]Team, error) {
	var teams []Team
	if err := c.getJSON(ctx, c.baseURL+"/teams", &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// getJSON performs an authenticated GET and decodes the JSON body.
// Non-2xx responses become errors carrying the status code so the
// caller's retry policy can classify them.
func (c *client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("remote request %s: status %d", rawURL, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
