package platforms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbird/internal/models"
)

type fakeDriver struct {
	callFn func(ctx context.Context, platform models.Platform, action string, payload map[string]any) (map[string]any, error)
	calls  []string
}

func (d *fakeDriver) Call(ctx context.Context, platform models.Platform, action string, payload map[string]any) (map[string]any, error) {
	d.calls = append(d.calls, string(platform)+"/"+action)
	if d.callFn != nil {
		return d.callFn(ctx, platform, action, payload)
	}
	return map[string]any{"post_id": "ext-1", "url": "https://social.example/p/ext-1"}, nil
}

func imageContent() PublishContent {
	return PublishContent{
		Caption: "hello",
		Media:   []models.MediaRef{{Kind: models.FileImage, Name: "a.webp", Src: "https://cdn.example.com/a.webp"}},
	}
}

func videoContent() PublishContent {
	return PublishContent{
		Caption: "hello",
		Media:   []models.MediaRef{{Kind: models.FileVideo, Name: "a.mp4", Src: "https://cdn.example.com/a.mp4"}},
	}
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(DefaultAdapters(&fakeDriver{})...)
	for _, p := range []models.Platform{
		models.PlatformFacebook, models.PlatformInstagram, models.PlatformLinkedIn,
		models.PlatformPinterest, models.PlatformYouTube, models.PlatformTikTok,
		models.PlatformGoogleBusiness,
	} {
		_, ok := reg.For(p)
		assert.True(t, ok, "missing adapter for %s", p)
	}
	_, ok := reg.For("myspace")
	assert.False(t, ok)
}

func TestPublishValidatesCapabilities(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	ctx := context.Background()
	page := models.SocialPage{ID: "pg1", PageID: "ext-pg", AuthToken: "tok"}

	tiktok := NewAdapter(models.PlatformTikTok, Capabilities{RequiresMedia: true, VideoOnly: true, MaxMediaItems: 1}, driver)

	_, err := tiktok.PublishPost(ctx, page, PublishContent{Caption: "no media"})
	require.Error(t, err)

	_, err = tiktok.PublishPost(ctx, page, imageContent())
	require.Error(t, err, "tiktok must reject image media")
	assert.Empty(t, driver.calls, "validation failures must not hit the gateway")

	res, err := tiktok.PublishPost(ctx, page, videoContent())
	require.NoError(t, err)
	assert.Equal(t, "ext-1", res.ExternalID)
}

func TestPublishMaxMediaItems(t *testing.T) {
	t.Parallel()

	inst := NewAdapter(models.PlatformInstagram, Capabilities{RequiresMedia: true, MaxMediaItems: 2}, &fakeDriver{})
	content := PublishContent{
		Caption: "carousel",
		Media: []models.MediaRef{
			{Kind: models.FileImage, Src: "https://cdn.example.com/1.webp"},
			{Kind: models.FileImage, Src: "https://cdn.example.com/2.webp"},
			{Kind: models.FileImage, Src: "https://cdn.example.com/3.webp"},
		},
	}
	_, err := inst.PublishPost(context.Background(), models.SocialPage{}, content)
	require.Error(t, err)
}

func TestPublishDriverErrorIsPropagated(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{callFn: func(context.Context, models.Platform, string, map[string]any) (map[string]any, error) {
		return nil, models.NewUpstreamError("facebook publish", errors.New("rate limited"))
	}}
	fb := NewAdapter(models.PlatformFacebook, Capabilities{}, driver)

	_, err := fb.PublishPost(context.Background(), models.SocialPage{}, PublishContent{Caption: "x"})
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeUpstream, appErr.Code)
}

func TestGoogleBusinessEventValidation(t *testing.T) {
	t.Parallel()

	g := NewAdapter(models.PlatformGoogleBusiness, Capabilities{}, &fakeDriver{})
	pastEvent := &models.PostSettings{GoogleBusiness: &models.GoogleBusinessSettings{
		PostType: models.GoogleBusinessEvent,
		Event: &models.GoogleBusinessEventDetails{
			Title:     "Launch",
			StartDate: models.CalendarDate{Year: 2001, Month: 1, Day: 1},
		},
	}}
	_, err := g.PublishPost(context.Background(), models.SocialPage{}, PublishContent{Caption: "x", Settings: pastEvent})
	require.Error(t, err)

	future := time.Now().UTC().AddDate(0, 1, 0)
	okEvent := &models.PostSettings{GoogleBusiness: &models.GoogleBusinessSettings{
		PostType: models.GoogleBusinessEvent,
		Event: &models.GoogleBusinessEventDetails{
			Title:     "Launch",
			StartDate: models.CalendarDate{Year: future.Year(), Month: int(future.Month()), Day: future.Day()},
		},
	}}
	_, err = g.PublishPost(context.Background(), models.SocialPage{}, PublishContent{Caption: "x", Settings: okEvent})
	require.NoError(t, err)
}

func TestCheckPageStatus(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{callFn: func(_ context.Context, _ models.Platform, action string, _ map[string]any) (map[string]any, error) {
		require.Equal(t, "status", action)
		return map[string]any{"status": "active"}, nil
	}}
	fb := NewAdapter(models.PlatformFacebook, Capabilities{}, driver)

	status, err := fb.CheckPageStatus(context.Background(), models.SocialPage{AuthToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, models.PageActive, status)

	// Missing token short-circuits to expired without a call.
	n := len(driver.calls)
	status, err = fb.CheckPageStatus(context.Background(), models.SocialPage{})
	require.NoError(t, err)
	assert.Equal(t, models.PageExpired, status)
	assert.Len(t, driver.calls, n)
}

func TestGetPostHistory(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{callFn: func(_ context.Context, _ models.Platform, _ string, payload map[string]any) (map[string]any, error) {
		assert.Equal(t, 20, payload["limit"], "out-of-range limit falls back to default")
		return map[string]any{
			"items": []any{
				map[string]any{"post_id": "h1", "caption": "old one", "published_at": "2025-01-02T10:00:00Z"},
			},
			"next_cursor": "c2",
		}, nil
	}}
	fb := NewAdapter(models.PlatformFacebook, Capabilities{}, driver)

	entries, cursor, err := fb.GetPostHistory(context.Background(), models.SocialPage{}, -5, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "h1", entries[0].ExternalID)
	assert.Equal(t, "c2", cursor)
	assert.Equal(t, 2025, entries[0].PublishedAt.Year())
}

func TestTikTokOptionsDefaults(t *testing.T) {
	t.Parallel()

	opts := TikTokOptions(nil)
	assert.Equal(t, string(models.TikTokPublic), opts["privacy_level"])

	opts = TikTokOptions(&models.PostSettings{TikTok: &models.TikTokSettings{
		PrivacyLevel:   models.TikTokSelfOnly,
		DisableComment: true,
	}})
	assert.Equal(t, string(models.TikTokSelfOnly), opts["privacy_level"])
	assert.Equal(t, true, opts["disable_comment"])
}
