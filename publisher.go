package clipforge

import "context"

// Credentials identify the account a publish runs under. The pipeline only passes these
// through; session state lives inside the PublishProvider.
type Credentials struct {
	Username string
	Password string
}

// PublishRequest is everything the remote service gets about one video. ThumbnailPath may be
// empty, in which case the service picks its own cover frame.
type PublishRequest struct {
	VideoPath     string
	Caption       string
	ThumbnailPath string
}

// A PublishProvider authenticates (reusing a persisted session where valid) and publishes one
// video. Authenticate failures wrap ErrAuth, Publish failures wrap ErrPublish. Implementations
// must be safe for concurrent use; Publish must only be called after a successful Authenticate
// for the same credentials.
type PublishProvider interface {
	Authenticate(ctx context.Context, creds Credentials) error
	Publish(ctx context.Context, creds Credentials, req PublishRequest) error
}
