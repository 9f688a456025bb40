package pipeline

import "github.com/clipforge/clipforge/generic"

func (i *Item) State() (ItemState, error) {
	ch := make(chan generic.Result[ItemState], 1)
	select {
	case i.stateCommand <- ch:
		select {
		case result := <-ch:
			return result.Parts()
		case <-i.ctx.Done():
			return generic.Err[ItemState](ErrItemClosed).Parts()
		}
	case <-i.ctx.Done():
		return generic.Err[ItemState](ErrItemClosed).Parts()
	}
}

// SetSelected marks the item for the next batch operation. Consumers toggle it; the
// pipeline only reads it.
func (i *Item) SetSelected(selected bool) {
	i.update(func(state *ItemState) {
		state.Selected = selected
	})
}

func (i *Item) StartPreview() {
	i.sendStart(startRequest{op: OpPreview})
}

func (i *Item) StartDownload() {
	i.sendStart(startRequest{op: OpDownload})
}

func (i *Item) StartPublish(opt PublishOptions) {
	i.sendStart(startRequest{op: OpPublish, publish: opt})
}

func (i *Item) sendStart(req startRequest) {
	select {
	case i.startCommand <- req:
	case <-i.ctx.Done():
	}
}

// update submits a state mutation to the actor goroutine. It is safe to call from task
// goroutines; after the item is closed the mutation is silently dropped.
func (i *Item) update(f func(*ItemState)) {
	i.apply(func(it *Item) {
		it.updateState(f)
	})
}

func (i *Item) apply(f func(*Item)) {
	select {
	case i.applyCommand <- f:
	case <-i.ctx.Done():
	}
}

func (i *Item) Close() {
	i.ctxCancel()
	<-i.done
}

func (i *Item) Done() <-chan struct{} {
	return i.done
}
