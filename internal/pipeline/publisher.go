// Package pipeline runs the multi-platform publish flow: commit the
// in-flight state, materialize media, resolve destinations, fan out across
// pages, and reconcile the terminal state from the joined results.
package pipeline

import (
	"context"
	stdsync "sync"
	"time"

	"feedbird/internal/lifecycle"
	"feedbird/internal/media"
	"feedbird/internal/models"
	"feedbird/internal/observability"
	"feedbird/internal/platforms"
	"feedbird/internal/store"
	"feedbird/internal/sync"
)

// Publisher orchestrates one publish per call. Per-post concurrency is
// guarded by the Publishing status itself: a second publish for the same
// post is rejected before any side effect.
type Publisher struct {
	svc      *sync.Service
	tree     *store.Tree
	registry *platforms.Registry
	media    *media.Materializer

	now func() time.Time
}

// NewPublisher returns a new Publisher.
func NewPublisher(svc *sync.Service, registry *platforms.Registry, materializer *media.Materializer) *Publisher {
	return &Publisher{
		svc:      svc,
		tree:     svc.Tree(),
		registry: registry,
		media:    materializer,
		now:      time.Now,
	}
}

type pageResult struct {
	pageID string
	err    error
}

// Publish runs the pipeline for one post. An explicit scheduledTime takes
// precedence over the post's own publish date. On return the post is never
// left in Publishing: every exit path resolves to Published, Scheduled, or
// Failed Publishing.
func (p *Publisher) Publish(ctx context.Context, workspaceID, postID, actorID string, scheduledTime *time.Time) (models.Post, error) {
	start := p.now()
	defer func() {
		observability.PublishDuration.Observe(time.Since(start).Seconds())
	}()

	post, ok := p.tree.Post(workspaceID, postID)
	if !ok {
		return models.Post{}, models.NewNotFoundError("post", postID)
	}
	if _, err := lifecycle.StartPublishing(post.Status); err != nil {
		return models.Post{}, models.NewAlreadyPublishingError(postID)
	}

	// Commit the in-flight state before any network call so concurrent
	// publishes of the same post are rejected upstream of the fan-out.
	if _, err := p.svc.ConfirmStatus(ctx, workspaceID, postID, models.StatusPublishing); err != nil {
		return models.Post{}, err
	}

	// Whatever happens below, Publishing must not stick.
	resolved := false
	defer func() {
		if !resolved {
			p.failLocal(workspaceID, postID)
		}
	}()

	// A scheduled time already in the past means publish immediately.
	effective := post.PublishDate
	if scheduledTime != nil {
		effective = scheduledTime
	}
	var scheduledAt *time.Time
	scheduledFuture := false
	if effective != nil && effective.After(p.now()) {
		scheduledAt = effective
		scheduledFuture = true
	}

	// Schedule intent is recorded before any fallible step, so a run that
	// later fails still shows what was asked for.
	if scheduledFuture {
		at := scheduledAt.UTC()
		_, err := p.svc.RecordActivity(ctx, models.Activity{
			WorkspaceID: workspaceID,
			PostID:      postID,
			Type:        models.ActivityScheduled,
			ActorID:     actorID,
			Metadata:    &models.ActivityMetadata{PublishTime: &at},
		})
		if err != nil {
			return p.fail(ctx, workspaceID, postID, actorID, nil, err)
		}
	}

	post, err := p.materializeBlocks(ctx, workspaceID, post)
	if err != nil {
		return p.fail(ctx, workspaceID, postID, actorID, nil, err)
	}

	w, ok := p.tree.Workspace(workspaceID)
	if !ok {
		return p.fail(ctx, workspaceID, postID, actorID, nil, models.NewNotFoundError("workspace", workspaceID))
	}
	pages := w.ConnectedPages(post.Pages)
	if len(pages) == 0 {
		return p.fail(ctx, workspaceID, postID, actorID, nil, models.NewNoConnectedPagesError(postID))
	}

	observability.LogPublishStart(ctx, postID, len(pages))
	results := p.fanOut(ctx, post, pages, scheduledAt)

	pageErrors := map[string]string{}
	for _, r := range results {
		if r.err != nil {
			pageErrors[r.pageID] = r.err.Error()
		}
	}
	observability.LogPublishEnd(ctx, postID, len(results)-len(pageErrors), len(pageErrors))

	if len(pageErrors) > 0 {
		var err error
		if len(pageErrors) < len(results) {
			err = models.NewPartialPublishError(postID, len(pageErrors), len(results))
		} else {
			err = models.NewUpstreamError("publish fan-out", firstError(results))
		}
		return p.fail(ctx, workspaceID, postID, actorID, pageErrors, err)
	}

	d := lifecycle.FinishPublishing(true, scheduledFuture)
	confirmed, err := p.svc.ConfirmStatus(ctx, workspaceID, postID, d.Next)
	if err != nil {
		return models.Post{}, err
	}
	resolved = true

	// The scheduled activity was already recorded up front; only an
	// immediate publish adds its terminal activity here.
	if !scheduledFuture {
		publishTime := p.now().UTC()
		_, err = p.svc.RecordActivity(ctx, models.Activity{
			WorkspaceID: workspaceID,
			PostID:      postID,
			Type:        d.Activity,
			ActorID:     actorID,
			Metadata:    &models.ActivityMetadata{PublishTime: &publishTime},
		})
		if err != nil {
			return models.Post{}, err
		}
	}
	if final, ok := p.tree.Post(workspaceID, postID); ok {
		return final, nil
	}
	return confirmed, nil
}

// fanOut publishes to every page in parallel and joins all results. A slow
// or failing page never cancels its siblings.
func (p *Publisher) fanOut(ctx context.Context, post models.Post, pages []models.SocialPage, scheduledAt *time.Time) []pageResult {
	results := make([]pageResult, len(pages))
	var wg stdsync.WaitGroup
	for i, page := range pages {
		wg.Add(1)
		go func(i int, page models.SocialPage) {
			defer wg.Done()
			results[i] = pageResult{pageID: page.ID, err: p.publishToPage(ctx, post, page, scheduledAt)}
		}(i, page)
	}
	wg.Wait()
	return results
}

func (p *Publisher) publishToPage(ctx context.Context, post models.Post, page models.SocialPage, scheduledAt *time.Time) error {
	ops, ok := p.registry.For(page.Platform)
	if !ok {
		return models.NewValidationError("no adapter for platform " + string(page.Platform))
	}
	content := platforms.PublishContent{
		Caption:     post.Caption.ForPlatform(page.Platform),
		Media:       currentMedia(post),
		ScheduledAt: scheduledAt,
		Settings:    post.Settings,
	}
	_, err := ops.PublishPost(ctx, page, content)
	return err
}

// materializeBlocks uploads the current version media of every block and
// persists the durable URLs so a retry skips completed uploads.
func (p *Publisher) materializeBlocks(ctx context.Context, workspaceID string, post models.Post) (models.Post, error) {
	// Without an object store posts go out with their source URLs as-is.
	if p.media == nil {
		return post, nil
	}
	changed := false
	blocks := make([]models.Block, len(post.Blocks))
	copy(blocks, post.Blocks)
	for i := range blocks {
		cur := blocks[i].CurrentVersion()
		if cur == nil || len(cur.Media) == 0 {
			continue
		}
		durable, err := p.media.Materialize(ctx, post.ID, cur.Media)
		if err != nil {
			return models.Post{}, err
		}
		if sameMedia(cur.Media, durable) {
			continue
		}
		versions := make([]models.Version, len(blocks[i].Versions))
		copy(versions, blocks[i].Versions)
		for j := range versions {
			if versions[j].ID == blocks[i].CurrentVersionID {
				versions[j].Media = durable
			}
		}
		blocks[i].Versions = versions
		changed = true
	}
	if !changed {
		return post, nil
	}
	return p.svc.UpdatePost(ctx, workspaceID, post.ID, models.PostPatch{Blocks: blocks})
}

// fail resolves the pipeline to Failed Publishing with its terminal
// activity, then returns the causing error.
func (p *Publisher) fail(ctx context.Context, workspaceID, postID, actorID string, pageErrors map[string]string, cause error) (models.Post, error) {
	d := lifecycle.FinishPublishing(false, false)
	if _, err := p.svc.ConfirmStatus(ctx, workspaceID, postID, d.Next); err != nil {
		// Local correction still happens via the deferred guard.
		return models.Post{}, cause
	}
	meta := &models.ActivityMetadata{}
	if len(pageErrors) > 0 {
		meta.PageErrors = pageErrors
	}
	_, _ = p.svc.RecordActivity(ctx, models.Activity{
		WorkspaceID: workspaceID,
		PostID:      postID,
		Type:        d.Activity,
		ActorID:     actorID,
		Metadata:    meta,
	})
	return models.Post{}, cause
}

// failLocal is the last-resort guard: the backend may be unreachable, but
// the local tree must never show a stuck Publishing post.
func (p *Publisher) failLocal(workspaceID, postID string) {
	p.tree.UpdatePost(workspaceID, postID, func(post *models.Post) {
		if post.Status == models.StatusPublishing {
			post.Status = models.StatusFailedPublishing
		}
	})
}

func currentMedia(post models.Post) []models.MediaRef {
	var out []models.MediaRef
	for i := range post.Blocks {
		if cur := post.Blocks[i].CurrentVersion(); cur != nil {
			out = append(out, cur.Media...)
		}
	}
	return out
}

func sameMedia(a, b []models.MediaRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Src != b[i].Src {
			return false
		}
	}
	return true
}

func firstError(results []pageResult) error {
	for _, r := range results {
		if r.err != nil {
			return r.err
		}
	}
	return nil
}
