package pipeline

type Event interface {
	// The Item this event relates to (nil if not an Item-specific event).
	Item() *Item
}

type itemEvent struct {
	item *Item
}

func (e itemEvent) Item() *Item {
	return e.item
}

type ItemAdded struct {
	itemEvent
}
type ItemRemoved struct {
	itemEvent
}

// PreviewReady carries the fetched metadata; Thumbnail may be nil if the source had no
// thumbnail or the fetch timed out.
type PreviewReady struct {
	itemEvent
	Title     string
	Thumbnail []byte
}

type ItemUpdated struct {
	itemEvent
	OldState ItemState
	NewState ItemState
}

// TaskLog is a human-readable progress or failure message from a task.
type TaskLog struct {
	itemEvent
	Op      Op
	Message string
}

// TaskDone marks the end of a task, successful or not.
type TaskDone struct {
	itemEvent
	Op  Op
	Err error
}
