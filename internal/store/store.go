// Package store holds the per-process caches of categories and
// transactions. Each store mirrors one gateway table: mutations go to the
// gateway first and, on success, trigger a full refetch so the cache never
// drifts from the table. Fetches started under an older session epoch are
// discarded when they land.
package store

// LoadState tracks where a store's cache stands relative to the gateway.
type LoadState int

const (
	// Unloaded means no fetch has completed for the current session.
	Unloaded LoadState = iota
	// Loading means a fetch is in flight.
	Loading
	// Loaded means the cache reflects a completed fetch.
	Loaded
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unknown"
	}
}
