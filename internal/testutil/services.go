package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/khoahotran/folio/internal/application/service"
)

type Uploader struct {
	mu      sync.Mutex
	Calls   []service.UploadParams
	Deleted []string
	Err     error
}

var _ service.Uploader = (*Uploader)(nil)

func (u *Uploader) Upload(_ context.Context, file io.Reader, params service.UploadParams) (*service.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	u.Calls = append(u.Calls, params)
	publicID := params.Folder + "/" + params.PublicID
	return &service.UploadResult{
		URL:      fmt.Sprintf("https://cdn.test/%s/%s", params.ResourceType, publicID),
		PublicID: publicID,
		Bytes:    len(data),
	}, nil
}

func (u *Uploader) Delete(_ context.Context, publicID string, _ service.ResourceType) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Deleted = append(u.Deleted, publicID)
	return nil
}

type Cache struct {
	mu          sync.Mutex
	views       map[string]*service.PublicPortfolio
	versions    map[string]int64
	Invalidated []string

	// FailInvalidations makes that many Invalidate calls fail before any
	// succeeds.
	FailInvalidations int
}

func NewCache() *Cache {
	return &Cache{views: map[string]*service.PublicPortfolio{}, versions: map[string]int64{}}
}

var _ service.PortfolioCache = (*Cache)(nil)

func (c *Cache) Get(_ context.Context, slug string) (*service.PublicPortfolio, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[slug]
	return v, ok
}

func (c *Cache) Version(_ context.Context, slug string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[slug], nil
}

func (c *Cache) Set(_ context.Context, slug string, version int64, view *service.PublicPortfolio) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[slug] != version {
		return false, nil
	}
	c.views[slug] = view
	return true, nil
}

func (c *Cache) Invalidate(_ context.Context, slugs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailInvalidations > 0 {
		c.FailInvalidations--
		return errors.New("cache unavailable")
	}
	for _, s := range slugs {
		c.versions[s]++
		delete(c.views, s)
		c.Invalidated = append(c.Invalidated, s)
	}
	return nil
}

func (c *Cache) Has(slug string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.views[slug]
	return ok
}

// Publisher delivers events on a buffered channel so tests can wait for
// the asynchronous publish.
type Publisher struct {
	Events chan service.PortfolioEvent
}

func NewPublisher() *Publisher {
	return &Publisher{Events: make(chan service.PortfolioEvent, 64)}
}

var _ service.EventPublisher = (*Publisher)(nil)

func (p *Publisher) PublishPortfolioEvent(_ context.Context, evt service.PortfolioEvent) error {
	p.Events <- evt
	return nil
}

// ViewRecorder counts views synchronously.
type ViewRecorder struct {
	mu    sync.Mutex
	Slugs []string
}

var _ service.ViewRecorder = (*ViewRecorder)(nil)

func (r *ViewRecorder) RecordView(_ context.Context, slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Slugs = append(r.Slugs, slug)
}

func (r *ViewRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Slugs)
}

type PreviewFetcher struct {
	Fn func(ctx context.Context, url string) (*service.LinkPreview, error)
}

func (f PreviewFetcher) FetchPreview(ctx context.Context, url string) (*service.LinkPreview, error) {
	return f.Fn(ctx, url)
}

// FileFetcher serves fixed bodies keyed by URL.
type FileFetcher struct {
	Files map[string][]byte
}

func (f FileFetcher) Fetch(_ context.Context, url string) (*service.FetchedFile, error) {
	data, ok := f.Files[url]
	if !ok {
		return nil, fmt.Errorf("unexpected fetch of %s", url)
	}
	return &service.FetchedFile{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentType:   "application/pdf",
		ContentLength: int64(len(data)),
	}, nil
}

// Metrics counts what use cases record.
type Metrics struct {
	mu              sync.Mutex
	Recorded        int
	Failed          int
	SlugConflicts   int
	PreviewFailures map[string]int
	Rejected        map[string]int
	Hits, Misses    int
}

func NewMetrics() *Metrics {
	return &Metrics{PreviewFailures: map[string]int{}, Rejected: map[string]int{}}
}

func (m *Metrics) ViewRecorded()     { m.locked(func() { m.Recorded++ }) }
func (m *Metrics) ViewRecordFailed() { m.locked(func() { m.Failed++ }) }
func (m *Metrics) SlugConflict()     { m.locked(func() { m.SlugConflicts++ }) }

func (m *Metrics) PreviewFailed(reason string) {
	m.locked(func() { m.PreviewFailures[reason]++ })
}

func (m *Metrics) UploadRejected(kind string) {
	m.locked(func() { m.Rejected[kind]++ })
}

func (m *Metrics) CacheResult(hit bool) {
	m.locked(func() {
		if hit {
			m.Hits++
		} else {
			m.Misses++
		}
	})
}

type MetricsSnapshot struct {
	Recorded      int
	Failed        int
	SlugConflicts int
	Hits          int
	Misses        int
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Recorded:      m.Recorded,
		Failed:        m.Failed,
		SlugConflicts: m.SlugConflicts,
		Hits:          m.Hits,
		Misses:        m.Misses,
	}
}

func (m *Metrics) locked(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}
