package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"feedbird/internal/models"
)

func TestGetWorkspaces(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/workspaces/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	workspaces := decodeBody[[]models.Workspace](t, resp)
	if assert.Len(t, workspaces, 1) {
		assert.Equal(t, "w1", workspaces[0].ID)
	}
}

func TestGetWorkspace_NotFound(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/workspaces/nope", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSyncFromBackend(t *testing.T) {
	srv, app, stub := newTestServer(t)

	// The backend gained a workspace since the last hydration.
	stub.workspaces = append(stub.workspaces, models.Workspace{ID: "w2", Name: "Second"})

	resp := doJSON(t, app, http.MethodPost, "/api/sync", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, ok := srv.tree.Workspace("w2")
	assert.True(t, ok)
}

func TestGetActivities_FilteredByPost(t *testing.T) {
	_, app, stub := newTestServer(t)

	stub.activities = []models.Activity{
		{ID: "a1", WorkspaceID: "w1", PostID: "p1", Type: models.ActivityApproved},
		{ID: "a2", WorkspaceID: "w1", PostID: "p2", Type: models.ActivityComment},
	}

	resp := doJSON(t, app, http.MethodGet, "/api/workspaces/w1/activities?post_id=p1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	activities := decodeBody[[]models.Activity](t, resp)
	if assert.Len(t, activities, 1) {
		assert.Equal(t, "a1", activities[0].ID)
	}
}

func TestInviteToWorkspace(t *testing.T) {
	_, app, stub := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/workspaces/w1/invites", map[string]any{
		"email": "new.member@example.com",
		"role":  "editor",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// The invitation lands in the audit trail without a post id.
	if assert.Len(t, stub.activities, 1) {
		assert.Equal(t, models.ActivityWorkspaceInvite, stub.activities[0].Type)
		assert.Empty(t, stub.activities[0].PostID)
	}
}

func TestInviteToWorkspace_InvalidEmail(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/workspaces/w1/invites", map[string]any{
		"email": "not-an-email",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
