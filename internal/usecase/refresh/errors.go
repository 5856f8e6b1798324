package refresh

import "errors"

var (
	// ErrFeedBlocked means the feed exceeded its failure budget and the
	// refresh was skipped without any network I/O.
	ErrFeedBlocked = errors.New("feed is blocked after repeated failures")

	// ErrFeedFetchFailed means the feed document could not be downloaded.
	ErrFeedFetchFailed = errors.New("feed fetch failed")

	// ErrFeedParseFailed means the downloaded document was not a usable feed.
	ErrFeedParseFailed = errors.New("feed parse failed")

	// ErrNoSubscriptions means a job arrived with nothing to refresh.
	ErrNoSubscriptions = errors.New("refresh job has no subscriptions")

	// ErrFeedUnchanged means the fetched document matched every
	// subscription's stored checksum. Cursors still advanced; this is a
	// signal for reporting, not a failure.
	ErrFeedUnchanged = errors.New("feed unchanged")
)
