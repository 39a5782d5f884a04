// Package backend is the HTTP client for the relational backend that owns
// all durable workspace, board, post, and activity state. Every mutation in
// the system is confirmed here before it is applied to the local tree.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"feedbird/internal/models"
	"feedbird/internal/observability"
)

// Client is the surface the sync layer depends on. Implementations must
// return the authoritative representation of the mutated resource: callers
// apply the response, never their request, to local state.
type Client interface {
	ListWorkspaces(ctx context.Context) ([]models.Workspace, error)
	GetWorkspace(ctx context.Context, workspaceID string) (models.Workspace, error)

	CreatePost(ctx context.Context, p models.Post) (models.Post, error)
	BulkCreatePosts(ctx context.Context, posts []models.Post) ([]models.Post, error)
	UpdatePost(ctx context.Context, postID string, patch models.PostPatch) (models.Post, error)
	DeletePost(ctx context.Context, postID string) error
	BulkDeletePosts(ctx context.Context, ids []string) error

	CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error)
	ListActivities(ctx context.Context, workspaceID, postID string) ([]models.Activity, error)

	UpdateBoard(ctx context.Context, boardID string, patch BoardPatch) (models.Board, error)

	CreateChannelMessage(ctx context.Context, channelID string, msg models.Comment) (models.Comment, error)
	SendWorkspaceInvite(ctx context.Context, workspaceID, email, role string) error
	SendBoardInvite(ctx context.Context, boardID, email string) error
}

// BoardPatch is a partial board update. Nil fields are left untouched.
type BoardPatch struct {
	Name        *string                 `json:"name,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Color       *string                 `json:"color,omitempty"`
	Rules       *models.BoardRules      `json:"rules,omitempty"`
	GroupData   []models.BoardGroupData `json:"group_data,omitempty"`
}

// HTTPClient talks to the backend REST API.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
	metrics *observability.BackendMetrics
	traces  *observability.TraceLayer
}

// NewHTTPClient builds a client for the given base URL. The token is sent as
// a bearer credential on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		metrics: observability.NewBackendMetrics(),
		traces:  observability.GetTraceLayer(),
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path, resource string, body, out any) error {
	defer c.metrics.TrackRequest(method, resource)()
	ctx, span := c.traces.TraceBackendCall(ctx, method, resource)
	defer span.End()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return models.NewUpstreamError(method+" "+resource, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observability.BackendRequestErrors.WithLabelValues(method, resource, strconv.Itoa(resp.StatusCode)).Inc()
		msg := readErrorMessage(resp.Body)
		err := models.NewUpstreamError(method+" "+resource,
			fmt.Errorf("status %d: %s", resp.StatusCode, msg))
		span.RecordError(err)
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.NewUpstreamError(method+" "+resource, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no body"
	}
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return string(data)
}

func (c *HTTPClient) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	var out []models.Workspace
	err := c.do(ctx, http.MethodGet, "/v1/workspaces", "workspaces", nil, &out)
	return out, err
}

func (c *HTTPClient) GetWorkspace(ctx context.Context, workspaceID string) (models.Workspace, error) {
	var out models.Workspace
	err := c.do(ctx, http.MethodGet, "/v1/workspaces/"+workspaceID, "workspaces", nil, &out)
	return out, err
}

func (c *HTTPClient) CreatePost(ctx context.Context, p models.Post) (models.Post, error) {
	var out models.Post
	err := c.do(ctx, http.MethodPost, "/v1/posts", "posts", p, &out)
	return out, err
}

func (c *HTTPClient) BulkCreatePosts(ctx context.Context, posts []models.Post) ([]models.Post, error) {
	body := map[string][]models.Post{"posts": posts}
	var out []models.Post
	err := c.do(ctx, http.MethodPost, "/v1/posts/bulk", "posts", body, &out)
	return out, err
}

func (c *HTTPClient) UpdatePost(ctx context.Context, postID string, patch models.PostPatch) (models.Post, error) {
	var out models.Post
	err := c.do(ctx, http.MethodPatch, "/v1/posts/"+postID, "posts", patch, &out)
	return out, err
}

func (c *HTTPClient) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/posts/"+postID, "posts", nil, nil)
}

func (c *HTTPClient) BulkDeletePosts(ctx context.Context, ids []string) error {
	body := map[string][]string{"ids": ids}
	return c.do(ctx, http.MethodPost, "/v1/posts/bulk-delete", "posts", body, nil)
}

func (c *HTTPClient) CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	var out models.Activity
	err := c.do(ctx, http.MethodPost, "/v1/activities", "activities", a, &out)
	return out, err
}

func (c *HTTPClient) ListActivities(ctx context.Context, workspaceID, postID string) ([]models.Activity, error) {
	path := "/v1/workspaces/" + workspaceID + "/activities"
	if postID != "" {
		path += "?post_id=" + postID
	}
	var out []models.Activity
	err := c.do(ctx, http.MethodGet, path, "activities", nil, &out)
	return out, err
}

func (c *HTTPClient) UpdateBoard(ctx context.Context, boardID string, patch BoardPatch) (models.Board, error) {
	var out models.Board
	err := c.do(ctx, http.MethodPatch, "/v1/boards/"+boardID, "boards", patch, &out)
	return out, err
}

func (c *HTTPClient) CreateChannelMessage(ctx context.Context, channelID string, msg models.Comment) (models.Comment, error) {
	var out models.Comment
	err := c.do(ctx, http.MethodPost, "/v1/channels/"+channelID+"/messages", "channels", msg, &out)
	return out, err
}

func (c *HTTPClient) SendWorkspaceInvite(ctx context.Context, workspaceID, email, role string) error {
	body := map[string]string{"email": email, "role": role}
	return c.do(ctx, http.MethodPost, "/v1/workspaces/"+workspaceID+"/invites", "invites", body, nil)
}

func (c *HTTPClient) SendBoardInvite(ctx context.Context, boardID, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/v1/boards/"+boardID+"/invites", "invites", body, nil)
}
