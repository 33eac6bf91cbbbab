package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/devboardhq/devboard/internal/config"
	"github.com/devboardhq/devboard/pkg/response"
)

// JiraService proxies issue searches to the configured Jira instance.
// Nothing is persisted; the dashboard always sees live ticket state.
type JiraService struct {
	cfg        *config.JiraConfig
	httpClient *http.Client
}

func NewJiraService(cfg *config.JiraConfig) *JiraService {
	return &JiraService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type JiraSearchRequest struct {
	JQL        string `form:"jql"`
	StartAt    int    `form:"start_at" binding:"min=0"`
	MaxResults int    `form:"max_results" binding:"min=0,max=100"`
}

// JiraIssue is the subset of a Jira issue the dashboard renders.
type JiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
		Priority struct {
			Name string `json:"name"`
		} `json:"priority"`
		IssueType struct {
			Name string `json:"name"`
		} `json:"issuetype"`
		Assignee *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Updated string `json:"updated"`
	} `json:"fields"`
}

type JiraSearchResponse struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []JiraIssue `json:"issues"`
}

// Enabled reports whether a Jira instance is configured.
func (s *JiraService) Enabled() bool {
	return s.cfg.BaseURL != ""
}

// defaultJQL builds the implicit query used when the client sends none:
// open issues assigned to the configured user, most recently updated first.
func (s *JiraService) defaultJQL() string {
	assignee := s.cfg.DefaultAssignee
	if assignee == "" {
		assignee = "currentUser()"
	} else {
		assignee = strconv.Quote(assignee)
	}
	return fmt.Sprintf("assignee = %s AND statusCategory != Done ORDER BY updated DESC", assignee)
}

// Search runs a JQL search against Jira.
func (s *JiraService) Search(ctx context.Context, req *JiraSearchRequest) (*JiraSearchResponse, error) {
	if !s.Enabled() {
		return nil, response.NewBadRequest("jira is not configured")
	}

	jql := req.JQL
	if jql == "" {
		jql = s.defaultJQL()
	}
	maxResults := req.MaxResults
	if maxResults == 0 {
		maxResults = 50
	}

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("startAt", strconv.Itoa(req.StartAt))
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("fields", "summary,status,priority,issuetype,assignee,updated")

	var result JiraSearchResponse
	if err := s.get(ctx, "/rest/api/2/search?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetIssue fetches a single issue by key.
func (s *JiraService) GetIssue(ctx context.Context, key string) (*JiraIssue, error) {
	if !s.Enabled() {
		return nil, response.NewBadRequest("jira is not configured")
	}

	var issue JiraIssue
	path := "/rest/api/2/issue/" + url.PathEscape(key) + "?fields=summary,status,priority,issuetype,assignee,updated"
	if err := s.get(ctx, path, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (s *JiraService) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.cfg.Email, s.cfg.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jira request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return response.NewNotFound("jira issue not found")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("jira returned %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
