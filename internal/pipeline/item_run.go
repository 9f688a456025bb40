package pipeline

import (
	"fmt"

	"github.com/clipforge/clipforge/generic"
)

func (i *Item) run() {
	for {
		select {
		case <-i.ctx.Done():
			i.close()
			close(i.done)
			return
		case ch := <-i.stateCommand:
			select {
			case ch <- generic.Ok[ItemState](i.ItemState):
			case <-i.ctx.Done():
			}
		case req := <-i.startCommand:
			i.start(req)
		case f := <-i.applyCommand:
			f(i)
		}
	}
}

func (i *Item) close() {
	i.events.Close()
}

// start arbitrates task claims: refuse a second same-kind task, refuse tasks the current
// status doesn't allow, then claim the op and spawn the task goroutine.
func (i *Item) start(req startRequest) {
	op := req.op
	if i.active.Contains(op) {
		i.log().Debugf("refusing %s: already running", op)
		i.events.Send(TaskLog{itemEvent{i}, op, fmt.Sprintf("%s already running", op)})
		return
	}
	if !i.canStart(op) {
		i.log().Debugf("refusing %s from status %q", op, i.Status)
		i.events.Send(TaskLog{itemEvent{i}, op, fmt.Sprintf("cannot %s from status %q", op, i.Status)})
		return
	}

	if i.source == nil {
		match, err := i.pipeline.config.ProviderRegistry.Match(i.URL)
		if err != nil {
			i.log().Warnf("no provider for %q: %v", i.URL, err)
			i.updateState(func(s *ItemState) {
				s.LastError = err.Error()
				switch op {
				case OpDownload:
					s.Status = StatusDownloadFailed
				case OpPublish:
					s.Status = StatusPublishFailed
				}
			})
			i.events.Send(TaskLog{itemEvent{i}, op, "no provider matched"})
			i.events.Send(TaskDone{itemEvent{i}, op, err})
			return
		}
		i.source = match.Source
		i.updateState(func(s *ItemState) {
			s.Provider = match.ProviderName
		})
	}

	i.active.Add(op)
	state := i.ItemState
	source := i.source
	switch op {
	case OpPreview:
		i.updateState(func(s *ItemState) {
			s.Preview = PreviewStatusPending
		})
		go i.runPreview(source, state)
	case OpDownload:
		i.updateState(func(s *ItemState) {
			s.Status = StatusDownloading
			s.Progress = 0
			s.LastError = ""
		})
		go i.runDownload(source, state)
	case OpPublish:
		i.updateState(func(s *ItemState) {
			s.Status = StatusPublishing
			s.Progress = 0
			s.LastError = ""
		})
		go i.runPublish(source, state, req.publish)
	}
}

func (i *Item) canStart(op Op) bool {
	switch op {
	case OpPreview:
		return i.Preview != PreviewStatusPending
	case OpDownload:
		return !i.Status.IsRunning() && !i.Status.IsTerminal()
	case OpPublish:
		return !i.Status.IsRunning() && !i.Status.IsTerminal()
	default:
		return false
	}
}

// updateState is the commit point for all item mutations; every committed change emits an
// ItemUpdated event. Must only be called from the actor goroutine.
func (i *Item) updateState(f func(*ItemState)) {
	old := i.ItemState
	f(&i.ItemState)
	if i.ItemState != old {
		i.events.Send(ItemUpdated{itemEvent{i}, old, i.ItemState})
	}
}

// finish releases the op claim and reports the task outcome. Safe to call from task
// goroutines; dropped if the item is already closed.
func (i *Item) finish(op Op, err error) {
	i.apply(func(it *Item) {
		it.active.Remove(op)
		it.events.Send(TaskDone{itemEvent{it}, op, err})
	})
}

func (i *Item) taskLog(op Op, format string, args ...any) {
	i.apply(func(it *Item) {
		it.events.Send(TaskLog{itemEvent{it}, op, fmt.Sprintf(format, args...)})
	})
}
