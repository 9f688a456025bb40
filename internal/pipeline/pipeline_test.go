package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge"
	"github.com/clipforge/clipforge/internal/history"
)

const testTimeout = 5 * time.Second

type fakeSource struct {
	url         string
	info        clipforge.SourceInfo
	reconErr    error
	reconDelay  time.Duration
	downloadErr error
	// downloadGate, when non-nil, blocks Download until closed
	downloadGate chan struct{}
	content      string
}

func (s *fakeSource) URL() string {
	return s.url
}

func (s *fakeSource) Recon(ctx context.Context) (*clipforge.SourceInfo, error) {
	if s.reconDelay > 0 {
		select {
		case <-time.After(s.reconDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", clipforge.ErrExtraction, ctx.Err())
		}
	}
	if s.reconErr != nil {
		return nil, s.reconErr
	}
	info := s.info
	return &info, nil
}

func (s *fakeSource) Download(ctx context.Context, destBase string, progress clipforge.ProgressFunc) (string, error) {
	if s.downloadGate != nil {
		select {
		case <-s.downloadGate:
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", clipforge.ErrDownload, ctx.Err())
		}
	}
	if s.downloadErr != nil {
		return "", s.downloadErr
	}
	path := destBase + ".mp4"
	if err := os.WriteFile(path, []byte(s.content), 0644); err != nil {
		return "", err
	}
	if progress != nil {
		progress(int64(len(s.content)), int64(len(s.content)))
	}
	return path, nil
}

// newFakeRegistry matches fake://<name> URLs against the given sources by URL.
func newFakeRegistry(sources ...*fakeSource) *clipforge.ProviderRegistry {
	registry := &clipforge.ProviderRegistry{}
	registry.MustCreate("fake", func(url string) (clipforge.Source, error) {
		if !strings.HasPrefix(url, "fake://") {
			return nil, fmt.Errorf("unknown URL scheme")
		}
		for _, s := range sources {
			if s.url == url {
				return s, nil
			}
		}
		return nil, fmt.Errorf("no such fake source")
	})
	return registry
}

type fakePublisher struct {
	mu           sync.Mutex
	authErr      error
	publishErr   error
	authCalls    int
	publishCalls int
	lastRequest  clipforge.PublishRequest
}

func (p *fakePublisher) Authenticate(ctx context.Context, creds clipforge.Credentials) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authCalls++
	return p.authErr
}

func (p *fakePublisher) Publish(ctx context.Context, creds clipforge.Credentials, req clipforge.PublishRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publishCalls++
	p.lastRequest = req
	return p.publishErr
}

func (p *fakePublisher) request() clipforge.PublishRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRequest
}

type fakeSampler struct {
	err error
}

func (s *fakeSampler) SelectFrame(ctx context.Context, videoPath string, thumbPath string) error {
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(thumbPath, []byte("jpeg bytes"), 0644)
}

type fakeHistory struct {
	mu      sync.Mutex
	records []history.Publish
}

func (h *fakeHistory) InsertPublish(p *history.Publish) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, *p)
	return nil
}

func (h *fakeHistory) all() []history.Publish {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]history.Publish(nil), h.records...)
}

func newTestPipeline(t *testing.T, config Config) *Pipeline {
	t.Helper()
	if config.DownloadDir == "" {
		config.DownloadDir = t.TempDir()
	}
	p, err := New(config, context.Background())
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func subscribeEvents(t *testing.T, p *Pipeline) <-chan Event {
	t.Helper()
	sub, err := p.Subscribe()
	require.NoError(t, err)
	t.Cleanup(sub.Close)
	return sub.Receive()
}

func waitFor(t *testing.T, events <-chan Event, match func(Event) bool) Event {
	t.Helper()
	timeout := time.After(testTimeout)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				t.Fatal("event stream closed")
			}
			if match(e) {
				return e
			}
		case <-timeout:
			t.Fatal("timed out waiting for event")
			return nil
		}
	}
}

func waitForTaskDone(t *testing.T, events <-chan Event, op Op) TaskDone {
	t.Helper()
	e := waitFor(t, events, func(e Event) bool {
		done, ok := e.(TaskDone)
		return ok && done.Op == op
	})
	return e.(TaskDone)
}

func TestAddAndList(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{url: "fake://one"}
	p := newTestPipeline(t, Config{ProviderRegistry: newFakeRegistry(source)})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	assert.NoError(err)
	waitFor(t, events, func(e Event) bool {
		_, ok := e.(ItemAdded)
		return ok
	})

	state, err := item.State()
	assert.NoError(err)
	assert.Equal("fake://one", state.URL)
	assert.Equal("fake://one", state.Title)
	assert.Equal(StatusIdle, state.Status)
	assert.Equal(PreviewStatusNone, state.Preview)
	assert.False(state.AddedAt.IsZero())

	assert.Len(p.ListItems(), 1)
	assert.Same(item, p.GetItem(state.ID))
	assert.Nil(p.GetItem(ItemID("missing")))

	// String must only expose fields that never change after creation, so consumers can
	// format an item while its actor is running
	assert.Equal(fmt.Sprintf("Item{ID:%q, URL:%q}", state.ID, state.URL), item.String())
}

func TestSelection(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{url: "fake://one"}
	p := newTestPipeline(t, Config{ProviderRegistry: newFakeRegistry(source)})
	events := subscribeEvents(t, p)

	one, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	two, err := p.Add("fake://two", nil)
	require.NoError(t, err)
	assert.Empty(p.SelectedItems())

	one.SetSelected(true)
	e := waitFor(t, events, func(e Event) bool {
		updated, ok := e.(ItemUpdated)
		return ok && updated.NewState.Selected
	})
	assert.False(e.(ItemUpdated).OldState.Selected)

	oneState, err := one.State()
	require.NoError(t, err)
	twoState, err := two.State()
	require.NoError(t, err)
	assert.True(oneState.Selected)
	assert.False(twoState.Selected)
	assert.Equal([]ItemID{oneState.ID}, p.SelectedItems())

	one.SetSelected(false)
	oneState, err = one.State()
	require.NoError(t, err)
	assert.False(oneState.Selected)
	assert.Empty(p.SelectedItems())
}

func TestPreview(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{
		url:  "fake://one",
		info: clipforge.SourceInfo{ID: "one", Title: "Amazing Sunset"},
	}
	p := newTestPipeline(t, Config{ProviderRegistry: newFakeRegistry(source)})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	item.StartPreview()

	e := waitFor(t, events, func(e Event) bool {
		_, ok := e.(PreviewReady)
		return ok
	})
	assert.Equal("Amazing Sunset", e.(PreviewReady).Title)

	done := waitForTaskDone(t, events, OpPreview)
	assert.NoError(done.Err)

	state, err := item.State()
	assert.NoError(err)
	assert.Equal(PreviewStatusReady, state.Preview)
	assert.Equal("Amazing Sunset", state.Title)
	assert.Equal("fake", state.Provider)
	// Preview doesn't touch the download state machine
	assert.Equal(StatusIdle, state.Status)
}

func TestPreviewFailure(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{
		url:      "fake://one",
		reconErr: fmt.Errorf("%w: not found", clipforge.ErrExtraction),
	}
	p := newTestPipeline(t, Config{ProviderRegistry: newFakeRegistry(source)})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	item.StartPreview()

	done := waitForTaskDone(t, events, OpPreview)
	assert.ErrorIs(done.Err, clipforge.ErrExtraction)

	state, err := item.State()
	assert.NoError(err)
	assert.Equal(PreviewStatusNone, state.Preview)
	assert.Equal("fake://one", state.Title)
	assert.NotEmpty(state.LastError)
}

func TestPreviewTimeout(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{
		url:        "fake://one",
		reconDelay: time.Second,
	}
	p := newTestPipeline(t, Config{
		ProviderRegistry: newFakeRegistry(source),
		MetadataTimeout:  50 * time.Millisecond,
	})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	item.StartPreview()

	done := waitForTaskDone(t, events, OpPreview)
	assert.ErrorIs(done.Err, clipforge.ErrExtraction)

	state, err := item.State()
	assert.NoError(err)
	assert.Equal(PreviewStatusNone, state.Preview)
}

func TestDownload(t *testing.T) {
	assert := assert.New(t)
	downloadDir := t.TempDir()
	source := &fakeSource{
		url:     "fake://one",
		info:    clipforge.SourceInfo{ID: "one", Title: "Amazing Sunset"},
		content: "video bytes",
	}
	p := newTestPipeline(t, Config{
		ProviderRegistry: newFakeRegistry(source),
		DownloadDir:      downloadDir,
	})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	item.StartDownload()

	done := waitForTaskDone(t, events, OpDownload)
	assert.NoError(done.Err)

	state, err := item.State()
	assert.NoError(err)
	assert.Equal(StatusDownloaded, state.Status)
	assert.Equal(100, state.Progress)
	assert.Equal(filepath.Join(downloadDir, "Amazing_Sunset.mp4"), state.FilePath)
	data, err := os.ReadFile(state.FilePath)
	assert.NoError(err)
	assert.Equal("video bytes", string(data))
}

func TestSubscribeItem(t *testing.T) {
	assert := assert.New(t)
	one := &fakeSource{url: "fake://one", info: clipforge.SourceInfo{Title: "One"}}
	two := &fakeSource{url: "fake://two", info: clipforge.SourceInfo{Title: "Two"}}
	p := newTestPipeline(t, Config{ProviderRegistry: newFakeRegistry(one, two)})

	itemOne, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	itemTwo, err := p.Add("fake://two", nil)
	require.NoError(t, err)
	oneState, err := itemOne.State()
	require.NoError(t, err)

	sub, err := p.SubscribeItem(oneState.ID)
	require.NoError(t, err)
	t.Cleanup(sub.Close)

	itemTwo.StartPreview()
	itemOne.StartPreview()

	// Only itemOne's events reach the filtered subscription
	timeout := time.After(testTimeout)
	for {
		select {
		case e, ok := <-sub.Receive():
			require.True(t, ok, "event stream closed")
			assert.Equal(oneState.ID, e.Item().ID)
			if done, isDone := e.(TaskDone); isDone && done.Op == OpPreview {
				assert.NoError(done.Err)
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for preview completion")
		}
	}
}

func TestDownloadNoProviderCompletes(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{url: "fake://one"}
	p := newTestPipeline(t, Config{ProviderRegistry: newFakeRegistry(source)})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://nobody-matches-this", nil)
	require.NoError(t, err)
	item.StartDownload()

	// Even without a matching provider the task must report completion
	done := waitForTaskDone(t, events, OpDownload)
	assert.Error(done.Err)

	state, err := item.State()
	require.NoError(t, err)
	assert.Equal(StatusDownloadFailed, state.Status)
	assert.NotEmpty(state.LastError)
}

func TestRedownload(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{
		url:     "fake://one",
		info:    clipforge.SourceInfo{Title: "Amazing Sunset"},
		content: "video bytes",
	}
	p := newTestPipeline(t, Config{ProviderRegistry: newFakeRegistry(source)})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	item.StartDownload()
	done := waitForTaskDone(t, events, OpDownload)
	require.NoError(t, done.Err)

	// A fresh operator action may re-enter the download path
	item.StartDownload()
	done = waitForTaskDone(t, events, OpDownload)
	assert.NoError(done.Err)

	state, err := item.State()
	require.NoError(t, err)
	assert.Equal(StatusDownloaded, state.Status)
}

func TestDownloadFailureIsContained(t *testing.T) {
	assert := assert.New(t)
	bad := &fakeSource{
		url:         "fake://bad",
		info:        clipforge.SourceInfo{Title: "Broken"},
		downloadErr: fmt.Errorf("%w: gone", clipforge.ErrDownload),
	}
	good := &fakeSource{
		url:     "fake://good",
		info:    clipforge.SourceInfo{Title: "Fine"},
		content: "video bytes",
	}
	p := newTestPipeline(t, Config{ProviderRegistry: newFakeRegistry(bad, good)})
	events := subscribeEvents(t, p)

	badItem, err := p.Add("fake://bad", nil)
	require.NoError(t, err)
	goodItem, err := p.Add("fake://good", nil)
	require.NoError(t, err)
	badItem.StartDownload()
	goodItem.StartDownload()

	var results []TaskDone
	results = append(results, waitForTaskDone(t, events, OpDownload))
	results = append(results, waitForTaskDone(t, events, OpDownload))

	badState, err := badItem.State()
	assert.NoError(err)
	assert.Equal(StatusDownloadFailed, badState.Status)
	assert.Contains(badState.LastError, "gone")

	goodState, err := goodItem.State()
	assert.NoError(err)
	assert.Equal(StatusDownloaded, goodState.Status)

	var errs int
	for _, done := range results {
		if done.Err != nil {
			errs++
		}
	}
	assert.Equal(1, errs)
}

func TestSecondDownloadRefused(t *testing.T) {
	assert := assert.New(t)
	gate := make(chan struct{})
	source := &fakeSource{
		url:          "fake://one",
		info:         clipforge.SourceInfo{Title: "Slow"},
		downloadGate: gate,
		content:      "video bytes",
	}
	p := newTestPipeline(t, Config{ProviderRegistry: newFakeRegistry(source)})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	item.StartDownload()
	waitFor(t, events, func(e Event) bool {
		updated, ok := e.(ItemUpdated)
		return ok && updated.NewState.Status == StatusDownloading
	})

	item.StartDownload()
	e := waitFor(t, events, func(e Event) bool {
		log, ok := e.(TaskLog)
		return ok && log.Op == OpDownload
	})
	assert.Contains(e.(TaskLog).Message, "already running")

	close(gate)
	done := waitForTaskDone(t, events, OpDownload)
	assert.NoError(done.Err)
}

func TestPublish(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{
		url:     "fake://one",
		info:    clipforge.SourceInfo{Title: "Amazing Sunset over the Ocean"},
		content: "video bytes",
	}
	publisher := &fakePublisher{}
	hist := &fakeHistory{}
	downloadDir := filepath.Join(t.TempDir(), "downloads")
	p := newTestPipeline(t, Config{
		DownloadDir:      downloadDir,
		ProviderRegistry: newFakeRegistry(source),
		Publisher:        publisher,
		Sampler:          &fakeSampler{},
		History:          hist,
		Credentials:      clipforge.Credentials{Username: "clipper", Password: "hunter2"},
		TagCount:         2,
	})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	state, err := item.State()
	require.NoError(t, err)

	var phases []Status
	p.StartPublish(nil, state.ID)

	// Item events and the removal are published independently, so wait for both
	var sawRemoved, sawPublished bool
	waitFor(t, events, func(e Event) bool {
		if updated, ok := e.(ItemUpdated); ok && updated.NewState.Status != updated.OldState.Status {
			phases = append(phases, updated.NewState.Status)
			sawPublished = sawPublished || updated.NewState.Status == StatusPublished
		}
		if _, ok := e.(ItemRemoved); ok {
			sawRemoved = true
		}
		return sawRemoved && sawPublished
	})

	// Publish walks its phases in order and ends with removal from the active set
	assert.Equal([]Status{
		StatusPublishing,
		StatusThumbnailSelecting,
		StatusCaptioning,
		StatusAuthenticating,
		StatusUploading,
		StatusPublished,
	}, phases)
	assert.Nil(p.GetItem(state.ID))

	// Intermediates are written under the item's download directory
	req := publisher.request()
	assert.Equal(downloadDir, filepath.Dir(req.VideoPath))
	assert.Equal(downloadDir, filepath.Dir(req.ThumbnailPath))
	assert.True(strings.HasPrefix(req.Caption, "Amazing Sunset over the Ocean"))
	assert.True(strings.HasSuffix(req.Caption, clipforge.CaptionSuffix))
	assert.Equal(2, strings.Count(req.Caption, "#"))

	// Temp files cleaned up on success
	_, err = os.Stat(req.VideoPath)
	assert.True(os.IsNotExist(err))
	_, err = os.Stat(req.ThumbnailPath)
	assert.True(os.IsNotExist(err))

	records := hist.all()
	if assert.Len(records, 1) {
		assert.Equal("fake://one", records[0].URL)
		assert.Equal("Amazing Sunset over the Ocean", records[0].Title)
		assert.Equal(req.Caption, records[0].Caption)
		assert.Equal("clipper", records[0].Account)
	}
}

func TestPublishUsesDownloadedFile(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{
		url:     "fake://one",
		info:    clipforge.SourceInfo{Title: "Amazing Sunset"},
		content: "video bytes",
	}
	publisher := &fakePublisher{}
	downloadDir := t.TempDir()
	p := newTestPipeline(t, Config{
		ProviderRegistry: newFakeRegistry(source),
		Publisher:        publisher,
		DownloadDir:      downloadDir,
	})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	item.StartDownload()
	require.NoError(t, waitForTaskDone(t, events, OpDownload).Err)

	item.StartPublish(PublishOptions{TagCount: 1})
	done := waitForTaskDone(t, events, OpPublish)
	assert.NoError(done.Err)

	req := publisher.request()
	assert.Equal(filepath.Join(downloadDir, "Amazing_Sunset.mp4"), req.VideoPath)
	// No sampler configured, so no custom thumbnail
	assert.Empty(req.ThumbnailPath)
	// The downloaded file is not a publish temp file, so it survives
	_, err = os.Stat(req.VideoPath)
	assert.NoError(err)
}

func TestPublishAuthFailure(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{
		url:     "fake://one",
		info:    clipforge.SourceInfo{Title: "Amazing Sunset"},
		content: "video bytes",
	}
	publisher := &fakePublisher{
		authErr: fmt.Errorf("%w: bad password", clipforge.ErrAuth),
	}
	p := newTestPipeline(t, Config{
		ProviderRegistry: newFakeRegistry(source),
		Publisher:        publisher,
	})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	item.StartPublish(PublishOptions{})

	done := waitForTaskDone(t, events, OpPublish)
	assert.ErrorIs(done.Err, clipforge.ErrAuth)

	state, err := item.State()
	assert.NoError(err)
	assert.Equal(StatusPublishFailed, state.Status)
	assert.Contains(state.LastError, "bad password")
	// Failure keeps the item in the active set
	assert.Same(item, p.GetItem(state.ID))
	assert.Equal(0, publisher.publishCalls)
}

func TestPublishRequiresThumbnail(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{
		url:     "fake://one",
		info:    clipforge.SourceInfo{Title: "Amazing Sunset"},
		content: "video bytes",
	}
	publisher := &fakePublisher{}
	p := newTestPipeline(t, Config{
		ProviderRegistry: newFakeRegistry(source),
		Publisher:        publisher,
		Sampler:          &fakeSampler{err: fmt.Errorf("%w: no frames", clipforge.ErrThumbnail)},
		RequireThumbnail: true,
	})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	item.StartPublish(PublishOptions{})

	done := waitForTaskDone(t, events, OpPublish)
	assert.ErrorIs(done.Err, clipforge.ErrThumbnail)
	assert.Equal(0, publisher.authCalls)
}

func TestPublishContinuesWithoutThumbnail(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{
		url:     "fake://one",
		info:    clipforge.SourceInfo{Title: "Amazing Sunset"},
		content: "video bytes",
	}
	publisher := &fakePublisher{}
	p := newTestPipeline(t, Config{
		ProviderRegistry: newFakeRegistry(source),
		Publisher:        publisher,
		Sampler:          &fakeSampler{err: fmt.Errorf("%w: no frames", clipforge.ErrThumbnail)},
	})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	item.StartPublish(PublishOptions{})

	done := waitForTaskDone(t, events, OpPublish)
	assert.NoError(done.Err)
	assert.Empty(publisher.request().ThumbnailPath)
}

func TestRemove(t *testing.T) {
	assert := assert.New(t)
	source := &fakeSource{url: "fake://one"}
	p := newTestPipeline(t, Config{ProviderRegistry: newFakeRegistry(source)})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	state, err := item.State()
	require.NoError(t, err)

	assert.NoError(p.Remove(state.ID))
	waitFor(t, events, func(e Event) bool {
		_, ok := e.(ItemRemoved)
		return ok
	})
	assert.Nil(p.GetItem(state.ID))
	assert.ErrorIs(p.Remove(state.ID), ErrNoSuchItem)

	<-item.Done()
	_, err = item.State()
	assert.ErrorIs(err, ErrItemClosed)
}

func TestRemoveWithRunningTask(t *testing.T) {
	assert := assert.New(t)
	gate := make(chan struct{})
	source := &fakeSource{
		url:          "fake://one",
		info:         clipforge.SourceInfo{Title: "Slow"},
		downloadGate: gate,
		content:      "video bytes",
	}
	p := newTestPipeline(t, Config{ProviderRegistry: newFakeRegistry(source)})
	events := subscribeEvents(t, p)

	item, err := p.Add("fake://one", nil)
	require.NoError(t, err)
	state, err := item.State()
	require.NoError(t, err)
	item.StartDownload()
	waitFor(t, events, func(e Event) bool {
		updated, ok := e.(ItemUpdated)
		return ok && updated.NewState.Status == StatusDownloading
	})

	// Removing mid-download must not crash; the task's remaining events go nowhere
	assert.NoError(p.Remove(state.ID))
	close(gate)
	<-item.Done()
}

func TestResolvePublishOptions(t *testing.T) {
	assert := assert.New(t)
	p := newTestPipeline(t, Config{TagCount: 3})

	assert.Equal(3, p.resolvePublishOptions(nil).TagCount)
	assert.Equal(7, p.resolvePublishOptions(&PublishOptions{TagCount: 7}).TagCount)
	assert.Equal(0, p.resolvePublishOptions(&PublishOptions{TagCount: -1}).TagCount)
	assert.Equal(maxTagCount, p.resolvePublishOptions(&PublishOptions{TagCount: 99}).TagCount)
}

func TestStatusSets(t *testing.T) {
	assert := assert.New(t)
	assert.True(StatusDownloading.IsRunning())
	assert.True(StatusUploading.IsRunning())
	assert.False(StatusIdle.IsRunning())
	assert.False(StatusDownloaded.IsRunning())
	assert.True(StatusPublished.IsTerminal())
	assert.False(StatusPublishFailed.IsTerminal())
}
