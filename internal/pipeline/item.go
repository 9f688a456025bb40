package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clipforge/clipforge"
	"github.com/clipforge/clipforge/generic"
	"github.com/clipforge/clipforge/internal/pubsub"
)

var (
	ErrItemClosed = errors.New("item closed")
)

type ItemID string

func NewItemID() ItemID {
	return ItemID(generic.Unwrap(uuid.NewRandom()).String())
}

// ItemState is a snapshot of everything about an item that tasks mutate. It stays comparable
// so committed changes can be detected with a plain struct comparison.
type ItemState struct {
	ID          ItemID
	URL         string
	DownloadDir string
	AddedAt     time.Time

	Preview  PreviewStatus
	Status   Status
	Selected bool

	// Data from the preview task
	Title        string
	Provider     string
	ThumbnailURL string

	// Data from download/publish tasks
	Progress  int
	FilePath  string
	Caption   string
	LastError string
}

type Item struct {
	ItemState

	// thumbnail is the preview image fetched from ThumbnailURL; actor-owned like ItemState.
	thumbnail []byte
	// source is lazily resolved from URL on first task start; actor-owned.
	source clipforge.Source
	// active tracks which task kinds currently have a claim; actor-owned.
	active generic.Set[Op]

	pipeline  *Pipeline
	ctx       context.Context
	ctxCancel context.CancelFunc

	events pubsub.Publisher[Event]

	done         chan struct{}
	startCommand chan startRequest
	applyCommand chan func(*Item)
	stateCommand chan chan generic.Result[ItemState]
}

type startRequest struct {
	op      Op
	publish PublishOptions
}

func newItem(pipeline *Pipeline, state ItemState) (*Item, error) {
	ctx, cancel := context.WithCancel(pipeline.ctx)
	i := &Item{
		ItemState: state,

		active: generic.NewSet[Op](),

		pipeline:  pipeline,
		ctx:       ctx,
		ctxCancel: cancel,

		events: pubsub.NewPublisher[Event](),

		done:         make(chan struct{}),
		startCommand: make(chan startRequest),
		applyCommand: make(chan func(*Item)),
		stateCommand: make(chan chan generic.Result[ItemState]),
	}
	go i.run()
	return i, nil
}

// String formats only fields that are immutable after creation, so it is safe to call
// from event consumers while the actor is still mutating the rest of the state.
func (i *Item) String() string {
	return fmt.Sprintf("Item{ID:\"%s\", URL:\"%s\"}", i.ID, i.URL)
}

func (i *Item) log() *zap.SugaredLogger {
	return zap.S().Named("item").With("item_id", i.ID)
}
