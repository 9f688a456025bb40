package pipeline

import (
	"errors"
	"time"

	"github.com/clipforge/clipforge/generic"
)

type AddItemOptions struct {
	// Override download directory; if not set (empty), will use the Pipeline's directory.
	DownloadDir string
}

func (p *Pipeline) Add(url string, opt *AddItemOptions) (*Item, error) {
	if opt == nil {
		opt = &AddItemOptions{}
	}
	state := ItemState{}
	state.ID = NewItemID()
	state.URL = url
	// Placeholder until the preview fetches the real title
	state.Title = url
	state.Status = StatusIdle
	if opt.DownloadDir != "" {
		state.DownloadDir = opt.DownloadDir
	} else {
		state.DownloadDir = p.config.DownloadDir
	}
	state.AddedAt = time.Now()
	return p.insertItem(state)
}

func (p *Pipeline) insertItem(state ItemState) (*Item, error) {
	id := state.ID
	item, err := newItem(p, state)
	if err != nil {
		return nil, err
	}
	err = p.items.Locked(func(items itemsByID) error {
		if _, ok := items[id]; ok {
			return errors.New("duplicate item ID")
		} else {
			items[id] = item
			return nil
		}
	})
	if err != nil {
		item.Close()
		return nil, err
	}
	generic.Unwrap_(item.events.AddSubscriber(p.events, false))
	p.log.Debugf("item added: %v", item)
	p.events.Send(ItemAdded{itemEvent{item}})
	return item, nil
}
