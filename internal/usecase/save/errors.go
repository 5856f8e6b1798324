package save

import "errors"

var (
	// ErrInvalidPageURL means the URL failed validation before any fetch.
	ErrInvalidPageURL = errors.New("invalid page url")

	// ErrPageFetchFailed means the article page could not be downloaded.
	ErrPageFetchFailed = errors.New("page fetch failed")

	// ErrExtractionFailed means no readable content could be produced.
	ErrExtractionFailed = errors.New("content extraction failed")
)
