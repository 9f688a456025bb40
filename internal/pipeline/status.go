package pipeline

import "github.com/clipforge/clipforge/generic"

// Op is a kind of task that can run against an item. At most one task of each kind runs per
// item at any time.
type Op string

const (
	OpPreview  Op = "preview"
	OpDownload Op = "download"
	OpPublish  Op = "publish"
)

// PreviewStatus tracks metadata availability, independently of Status.
type PreviewStatus string

const (
	PreviewStatusNone    PreviewStatus = ""
	PreviewStatusPending PreviewStatus = "pending"
	PreviewStatusReady   PreviewStatus = "ready"
)

type Status string

const (
	StatusIdle           Status = "idle"
	StatusDownloading    Status = "downloading"
	StatusDownloaded     Status = "downloaded"
	StatusDownloadFailed Status = "download_failed"
	// Publish task phases, in order
	StatusPublishing         Status = "publishing"
	StatusThumbnailSelecting Status = "thumbnail_selecting"
	StatusCaptioning         Status = "captioning"
	StatusAuthenticating     Status = "authenticating"
	StatusUploading          Status = "uploading"
	StatusPublished          Status = "published"
	StatusPublishFailed      Status = "publish_failed"
)

var runningStatuses = generic.NewSet(
	StatusDownloading,
	StatusPublishing,
	StatusThumbnailSelecting,
	StatusCaptioning,
	StatusAuthenticating,
	StatusUploading,
)

// IsRunning returns true if the status is one where some active task should be updating the
// item in some way.
func (s Status) IsRunning() bool {
	return runningStatuses.Contains(s)
}

// IsTerminal returns true if no further task can start from this status.
func (s Status) IsTerminal() bool {
	return s == StatusPublished
}
