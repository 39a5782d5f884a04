// Package store holds the in-memory workspace tree that every read in the
// system is served from. The tree is the local mirror of backend state:
// mutations land here only after the backend has confirmed them, except for
// the time reconciler's local-only corrections.
package store

import (
	"sync"

	"feedbird/internal/models"
)

// Tree is the normalized workspace > board > post hierarchy behind a single
// RWMutex. Mutators rebuild only the path from the root to the changed node
// and share everything else, so a snapshot taken before a mutation stays
// internally consistent.
type Tree struct {
	mu         sync.RWMutex
	workspaces []models.Workspace
}

func NewTree() *Tree {
	return &Tree{}
}

// Hydrate replaces the whole tree, used on startup and after a remote
// snapshot load.
func (t *Tree) Hydrate(workspaces []models.Workspace) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.workspaces = workspaces
}

// Workspaces returns the current root slice. Callers must treat the result
// as read-only.
func (t *Tree) Workspaces() []models.Workspace {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.workspaces
}

// Workspace returns the workspace with the given id. All accessors tolerate
// missing nodes and return ok=false instead of panicking: lookups race with
// deletions by design.
func (t *Tree) Workspace(id string) (models.Workspace, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.workspaces {
		if t.workspaces[i].ID == id {
			return t.workspaces[i], true
		}
	}
	return models.Workspace{}, false
}

// Board returns a board and its owning workspace id.
func (t *Tree) Board(workspaceID, boardID string) (models.Board, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	w, ok := t.workspaceLocked(workspaceID)
	if !ok {
		return models.Board{}, false
	}
	for i := range w.Boards {
		if w.Boards[i].ID == boardID {
			return w.Boards[i], true
		}
	}
	return models.Board{}, false
}

// Post finds a post anywhere in a workspace.
func (t *Tree) Post(workspaceID, postID string) (models.Post, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	w, ok := t.workspaceLocked(workspaceID)
	if !ok {
		return models.Post{}, false
	}
	for i := range w.Boards {
		for j := range w.Boards[i].Posts {
			if w.Boards[i].Posts[j].ID == postID {
				return w.Boards[i].Posts[j], true
			}
		}
	}
	return models.Post{}, false
}

// BoardRules resolves the policy of the board owning a post, falling back to
// zero rules when the board carries none. Rules are resolved fresh on every
// call so a policy edit takes effect on the next operation.
func (t *Tree) BoardRules(workspaceID, boardID string) models.BoardRules {
	b, ok := t.Board(workspaceID, boardID)
	if !ok || b.Rules == nil {
		return models.BoardRules{}
	}
	return *b.Rules
}

func (t *Tree) workspaceLocked(id string) (*models.Workspace, bool) {
	for i := range t.workspaces {
		if t.workspaces[i].ID == id {
			return &t.workspaces[i], true
		}
	}
	return nil, false
}

// UpsertWorkspace inserts or replaces a workspace wholesale.
func (t *Tree) UpsertWorkspace(w models.Workspace) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ws := make([]models.Workspace, len(t.workspaces))
	copy(ws, t.workspaces)
	for i := range ws {
		if ws[i].ID == w.ID {
			ws[i] = w
			t.workspaces = ws
			return
		}
	}
	t.workspaces = append(ws, w)
}

// UpdateWorkspace applies fn to a copy of the workspace and swaps it in.
// Returns false when the workspace does not exist; fn is then never called.
func (t *Tree) UpdateWorkspace(id string, fn func(*models.Workspace)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.workspaces {
		if t.workspaces[i].ID != id {
			continue
		}
		ws := make([]models.Workspace, len(t.workspaces))
		copy(ws, t.workspaces)
		w := ws[i]
		fn(&w)
		ws[i] = w
		t.workspaces = ws
		return true
	}
	return false
}

// UpdateBoard applies fn to a copy of one board, rebuilding the path to it.
func (t *Tree) UpdateBoard(workspaceID, boardID string, fn func(*models.Board)) bool {
	return t.UpdateWorkspace(workspaceID, func(w *models.Workspace) {
		boards := make([]models.Board, len(w.Boards))
		copy(boards, w.Boards)
		w.Boards = boards
		for i := range boards {
			if boards[i].ID == boardID {
				b := boards[i]
				fn(&b)
				boards[i] = b
				return
			}
		}
	})
}

// UpsertPost places a post into its board, replacing any post with the same
// id. Returns false when workspace or board is missing.
func (t *Tree) UpsertPost(workspaceID string, p models.Post) bool {
	found := false
	ok := t.UpdateBoard(workspaceID, p.BoardID, func(b *models.Board) {
		posts := make([]models.Post, len(b.Posts))
		copy(posts, b.Posts)
		for i := range posts {
			if posts[i].ID == p.ID {
				posts[i] = p
				b.Posts = posts
				found = true
				return
			}
		}
		b.Posts = append(posts, p)
		found = true
	})
	return ok && found
}

// UpdatePost applies fn to a copy of one post wherever it lives in the
// workspace. Returns false when the post is not found.
func (t *Tree) UpdatePost(workspaceID, postID string, fn func(*models.Post)) bool {
	found := false
	t.UpdateWorkspace(workspaceID, func(w *models.Workspace) {
		boards := make([]models.Board, len(w.Boards))
		copy(boards, w.Boards)
		w.Boards = boards
		for i := range boards {
			for j := range boards[i].Posts {
				if boards[i].Posts[j].ID != postID {
					continue
				}
				posts := make([]models.Post, len(boards[i].Posts))
				copy(posts, boards[i].Posts)
				p := posts[j]
				fn(&p)
				posts[j] = p
				boards[i].Posts = posts
				found = true
				return
			}
		}
	})
	return found
}

// RemovePosts drops the given post ids from a workspace. Missing ids are
// ignored.
func (t *Tree) RemovePosts(workspaceID string, ids []string) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	t.UpdateWorkspace(workspaceID, func(w *models.Workspace) {
		boards := make([]models.Board, len(w.Boards))
		copy(boards, w.Boards)
		w.Boards = boards
		for i := range boards {
			var kept []models.Post
			for _, p := range boards[i].Posts {
				if _, gone := drop[p.ID]; !gone {
					kept = append(kept, p)
				}
			}
			boards[i].Posts = kept
		}
	})
}

// EachPost calls fn for every post in every workspace under the read lock.
// fn must not call back into the tree.
func (t *Tree) EachPost(fn func(workspaceID string, p models.Post)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.workspaces {
		w := &t.workspaces[i]
		for j := range w.Boards {
			for k := range w.Boards[j].Posts {
				fn(w.ID, w.Boards[j].Posts[k])
			}
		}
	}
}
