package clipforge

import "errors"

// Failure taxonomy for the pipeline. Tasks wrap provider failures with one of these so the
// orchestrator and frontends can distinguish the failing stage without string matching.
var (
	// ErrExtraction means metadata could not be fetched for a URL (network failure,
	// unsupported URL, removed content).
	ErrExtraction = errors.New("metadata extraction failed")
	// ErrDownload means the media download or merge failed.
	ErrDownload = errors.New("media download failed")
	// ErrThumbnail means neither frame sampling nor the fallback produced an image.
	ErrThumbnail = errors.New("no thumbnail could be produced")
	// ErrAuth means the publish provider rejected the credentials or session.
	ErrAuth = errors.New("authentication failed")
	// ErrPublish means the remote service rejected the publish itself.
	ErrPublish = errors.New("publish rejected")
)
