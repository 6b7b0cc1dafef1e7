package codex

import "errors"

// Failure taxonomy. Fetch errors abort the run; render and persistence
// errors during class processing are confined to that URL's audit item.
// Zero extracted rows is not an error at all, it records as "skipped".
var (
	ErrFetch       = errors.New("codex: fetch failed")
	ErrRender      = errors.New("codex: render failed")
	ErrPersistence = errors.New("codex: persistence failed")
)
