// Package pipeline coordinates the lifecycle of queued video items: preview metadata,
// download to disk, and publish with generated caption and thumbnail. Each item runs as its
// own actor goroutine; the pipeline fans item events out to subscribers.
package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clipforge/clipforge"
	"github.com/clipforge/clipforge/internal/history"
	"github.com/clipforge/clipforge/internal/pubsub"
	"github.com/clipforge/clipforge/internal/sync_"
)

var (
	ErrNoSuchItem = errors.New("no such item")
)

// maxThumbnailBytes bounds how much of a preview image gets read into memory.
const maxThumbnailBytes = 10 << 20

// maxTagCount is the most hashtags a publish will ever append.
const maxTagCount = 10

// A FrameSelector picks a representative frame from a video and writes it to thumbPath.
type FrameSelector interface {
	SelectFrame(ctx context.Context, videoPath string, thumbPath string) error
}

// A HistoryRecorder is told about each successful publish.
type HistoryRecorder interface {
	InsertPublish(p *history.Publish) error
}

// CleanupPolicy controls what happens to publish temp files after the task ends.
type CleanupPolicy string

const (
	CleanupOnSuccess CleanupPolicy = "on_success"
	CleanupNever     CleanupPolicy = "never"
	CleanupAlways    CleanupPolicy = "always"
)

type Config struct {
	// DownloadDir is where downloads land unless an item overrides it.
	DownloadDir      string
	ProviderRegistry *clipforge.ProviderRegistry
	Publisher        clipforge.PublishProvider
	// Sampler may be nil, in which case publishes never attach a custom thumbnail.
	Sampler  FrameSelector
	Composer *clipforge.CaptionComposer
	// History may be nil to disable publish history.
	History     HistoryRecorder
	Credentials clipforge.Credentials
	// TagCount is the default number of hashtags per publish, overridable per batch.
	TagCount int
	// RequireThumbnail makes a publish fail when frame selection fails, instead of
	// publishing without a custom thumbnail.
	RequireThumbnail bool
	Cleanup          CleanupPolicy
	// MetadataTimeout bounds metadata and preview image fetches; downloads and uploads are
	// unbounded.
	MetadataTimeout time.Duration
	// Minimum interval between ItemUpdated events from progress updates.
	ProgressUpdateInterval time.Duration
}

var DefaultConfig = Config{
	DownloadDir:            ".",
	ProviderRegistry:       &clipforge.DefaultProviderRegistry,
	TagCount:               3,
	Cleanup:                CleanupOnSuccess,
	MetadataTimeout:        10 * time.Second,
	ProgressUpdateInterval: 500 * time.Millisecond,
}

// PublishOptions are per-batch publish settings.
type PublishOptions struct {
	TagCount int
}

type itemsByID = map[ItemID]*Item

type Pipeline struct {
	config    Config
	ctx       context.Context
	ctxCancel context.CancelFunc
	log       *zap.SugaredLogger

	httpClient *http.Client
	items      *sync_.RWMutexed[itemsByID]
	events     pubsub.Publisher[Event]
}

func New(config Config, ctx context.Context) (*Pipeline, error) {
	if config.DownloadDir == "" {
		config.DownloadDir = DefaultConfig.DownloadDir
	}
	if config.ProviderRegistry == nil {
		config.ProviderRegistry = DefaultConfig.ProviderRegistry
	}
	if config.Composer == nil {
		config.Composer = clipforge.NewCaptionComposer()
	}
	if config.Cleanup == "" {
		config.Cleanup = DefaultConfig.Cleanup
	}
	if config.MetadataTimeout == 0 {
		config.MetadataTimeout = DefaultConfig.MetadataTimeout
	}
	if config.ProgressUpdateInterval == 0 {
		config.ProgressUpdateInterval = DefaultConfig.ProgressUpdateInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pipeline{
		config:    config,
		ctx:       ctx,
		ctxCancel: cancel,
		log:       zap.S().Named("pipeline"),

		httpClient: &http.Client{},
		items:      sync_.NewRWMutexed(make(itemsByID)),
	}
	p.events = pubsub.NewPublisher[Event]()
	return p, nil
}

func (p *Pipeline) Subscribe() (pubsub.ReceiverCloser[Event], error) {
	return p.events.Subscribe()
}

// SubscribeItem returns a subscription carrying only the given item's events, for consumers
// that project a single item rather than the whole stream.
func (p *Pipeline) SubscribeItem(id ItemID) (pubsub.ReceiverCloser[Event], error) {
	ch := pubsub.NewChannel[Event](pubsub.DefaultSubscriberBufSize)
	sender := pubsub.NewFilteredSender[Event](ch, func(e Event) bool {
		item := e.Item()
		return item != nil && item.ID == id
	})
	if err := p.events.AddSubscriber(sender, true); err != nil {
		return nil, err
	}
	return ch, nil
}

func (p *Pipeline) ListItems() []*Item {
	var list []*Item
	_ = p.items.RLocked(func(items itemsByID) error {
		list = make([]*Item, 0, len(items))
		for _, item := range items {
			list = append(list, item)
		}
		return nil
	})
	return list
}

// SelectedItems returns the IDs of items currently marked selected.
func (p *Pipeline) SelectedItems() []ItemID {
	var ids []ItemID
	for _, item := range p.ListItems() {
		if state, err := item.State(); err == nil && state.Selected {
			ids = append(ids, state.ID)
		}
	}
	return ids
}

func (p *Pipeline) GetItem(id ItemID) (item *Item) {
	_ = p.items.RLocked(func(items itemsByID) error {
		item = items[id]
		return nil
	})
	return item
}

// StartPreview begins a metadata fetch for each item. Non-blocking beyond command handoff;
// outcomes arrive as events.
func (p *Pipeline) StartPreview(ids ...ItemID) {
	p.forEach(ids, func(item *Item) {
		item.StartPreview()
	})
}

func (p *Pipeline) StartDownload(ids ...ItemID) {
	p.forEach(ids, func(item *Item) {
		item.StartDownload()
	})
}

func (p *Pipeline) StartPublish(opt *PublishOptions, ids ...ItemID) {
	resolved := p.resolvePublishOptions(opt)
	p.forEach(ids, func(item *Item) {
		item.StartPublish(resolved)
	})
}

func (p *Pipeline) forEach(ids []ItemID, f func(*Item)) {
	for _, id := range ids {
		if item := p.GetItem(id); item != nil {
			f(item)
		} else {
			p.log.Debugf("ignoring unknown item ID %q", id)
		}
	}
}

func (p *Pipeline) resolvePublishOptions(opt *PublishOptions) PublishOptions {
	resolved := PublishOptions{TagCount: p.config.TagCount}
	if opt != nil {
		resolved = *opt
	}
	if resolved.TagCount < 0 {
		resolved.TagCount = 0
	}
	if resolved.TagCount > maxTagCount {
		resolved.TagCount = maxTagCount
	}
	return resolved
}

// Remove drops an item from the active set and shuts down its actor. Tasks still running for
// the item keep going until they notice the cancelled context; their events go nowhere.
func (p *Pipeline) Remove(id ItemID) error {
	var item *Item
	err := p.items.Locked(func(items itemsByID) error {
		item = items[id]
		if item == nil {
			return ErrNoSuchItem
		}
		delete(items, id)
		return nil
	})
	if err != nil {
		return err
	}
	p.log.Debugf("item removed: %v", item)
	p.events.Send(ItemRemoved{itemEvent{item}})
	go item.Close()
	return nil
}

func (p *Pipeline) Close() {
	p.ctxCancel()
	items := p.items.Swap(nil)
	var wg sync.WaitGroup
	wg.Add(len(items))
	for _, item := range items {
		go func(item *Item) {
			item.Close()
			wg.Done()
		}(item)
	}
	wg.Wait()
	p.events.Close()
}

// fetchThumbnail downloads a preview image, bounded by the metadata timeout. Failures are
// logged and swallowed.
func (p *Pipeline) fetchThumbnail(ctx context.Context, url string) []byte {
	if url == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.config.MetadataTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		p.log.Debugf("bad thumbnail URL %q: %v", url, err)
		return nil
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Debugf("thumbnail fetch failed: %v", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		p.log.Debugf("thumbnail fetch failed: %s", resp.Status)
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes))
	if err != nil {
		p.log.Debugf("thumbnail read failed: %v", err)
		return nil
	}
	return data
}

func (p *Pipeline) cleanupFiles(paths []string, success bool) {
	switch p.config.Cleanup {
	case CleanupNever:
		return
	case CleanupOnSuccess:
		if !success {
			return
		}
	}
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			p.log.Debugf("failed to remove %q: %v", path, err)
		}
	}
}
