// Package media turns ephemeral media references (data URIs, transient
// remote URLs) into durable object-store URLs before a post is handed to
// any platform adapter.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"feedbird/internal/models"
	"feedbird/internal/observability"
)

const (
	// WebPQuality is the re-encode quality for image media.
	WebPQuality = 70

	maxFetchBytes = 200 * 1024 * 1024
)

// ObjectStore persists media bytes and returns a durable public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PublicPrefix() string
}

// Materializer uploads every non-durable media reference of a post. Keys are
// content-addressed, so re-running a failed publish re-uploads nothing that
// already landed.
type Materializer struct {
	store ObjectStore
	http  *http.Client
}

// NewMaterializer returns a materializer over the given store.
func NewMaterializer(store ObjectStore) *Materializer {
	return &Materializer{
		store: store,
		http:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Materialize returns a copy of media where every Src is durable. Already
// durable references are passed through untouched.
func (m *Materializer) Materialize(ctx context.Context, postID string, media []models.MediaRef) ([]models.MediaRef, error) {
	out := make([]models.MediaRef, len(media))
	for i, ref := range media {
		if m.durable(ref.Src) {
			out[i] = ref
			continue
		}
		materialized, err := m.materializeOne(ctx, postID, ref)
		if err != nil {
			observability.MediaUploads.WithLabelValues(string(ref.Kind), "failure").Inc()
			return nil, err
		}
		observability.MediaUploads.WithLabelValues(string(ref.Kind), "success").Inc()
		out[i] = materialized
	}
	return out, nil
}

func (m *Materializer) durable(src string) bool {
	prefix := m.store.PublicPrefix()
	return prefix != "" && strings.HasPrefix(src, prefix)
}

func (m *Materializer) materializeOne(ctx context.Context, postID string, ref models.MediaRef) (models.MediaRef, error) {
	var data []byte
	var contentType string
	var err error

	switch {
	case strings.HasPrefix(ref.Src, "data:"):
		data, contentType, err = decodeDataURI(ref.Src)
	case strings.HasPrefix(ref.Src, "http://"), strings.HasPrefix(ref.Src, "https://"):
		data, contentType, err = m.fetch(ctx, ref.Src)
	default:
		err = models.NewValidationError(fmt.Sprintf("media %q has an unusable source", ref.Name))
	}
	if err != nil {
		return models.MediaRef{}, err
	}

	ext := extensionFor(contentType)
	if ref.Kind == models.FileImage {
		// Images are normalized to WebP regardless of input format.
		data, err = reencodeWebP(data)
		if err != nil {
			return models.MediaRef{}, models.NewValidationError(fmt.Sprintf("media %q is not a decodable image", ref.Name))
		}
		contentType = "image/webp"
		ext = "webp"
	}

	sum := sha256.Sum256(data)
	key := fmt.Sprintf("posts/%s/%s.%s", postID, hex.EncodeToString(sum[:8]), ext)
	url, err := m.store.Put(ctx, key, data, contentType)
	if err != nil {
		return models.MediaRef{}, err
	}
	return models.MediaRef{Kind: ref.Kind, Name: ref.Name, Src: url}, nil
}

func (m *Materializer) fetch(ctx context.Context, src string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build media fetch: %w", err)
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return nil, "", models.NewUpstreamError("media fetch", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", models.NewUpstreamError("media fetch", fmt.Errorf("status %d", resp.StatusCode))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, "", models.NewUpstreamError("media fetch", err)
	}
	if len(data) > maxFetchBytes {
		return nil, "", models.NewValidationError("media file too large")
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func decodeDataURI(src string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, "", models.NewValidationError("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", models.NewValidationError("malformed data URI")
	}
	contentType := "application/octet-stream"
	base64Encoded := false
	for i, part := range strings.Split(meta, ";") {
		if i == 0 && part != "" {
			contentType = part
			continue
		}
		if part == "base64" {
			base64Encoded = true
		}
	}
	if !base64Encoded {
		return nil, "", models.NewValidationError("data URI must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", models.NewValidationError("data URI payload is not valid base64")
	}
	return data, contentType, nil
}

func reencodeWebP(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func extensionFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/png"):
		return "png"
	case strings.HasPrefix(contentType, "image/jpeg"), strings.HasPrefix(contentType, "image/jpg"):
		return "jpg"
	case strings.HasPrefix(contentType, "image/gif"):
		return "gif"
	case strings.HasPrefix(contentType, "image/webp"):
		return "webp"
	case strings.HasPrefix(contentType, "video/mp4"):
		return "mp4"
	case strings.HasPrefix(contentType, "video/quicktime"):
		return "mov"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	default:
		return "bin"
	}
}
