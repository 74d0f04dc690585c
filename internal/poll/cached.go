// Package poll implements the per-cycle sample cache shared by every sensor
// type. A fetch is assumed to be a blocking round trip over the serial link,
// so each cycle fetches at most once no matter how many consumers read the
// value; Reset is the explicit cycle boundary.
package poll

// FetchFunc produces one sample. It may block on link I/O and may fail.
type FetchFunc[T any] func() (T, error)

// Cached memoizes one sample per poll cycle and keeps the previous cycle's
// sample for edge comparison. It is not safe for concurrent use; a Cached
// belongs to the single polling goroutine (see the session loop).
type Cached[T any] struct {
	fetch   FetchFunc[T]
	track   bool
	cur     *T
	last    *T
	fetches int
}

// NewCached returns a cache around fetch. With track set, Reset forces the
// outgoing cycle's value to be materialized before it is committed as the
// previous sample, so no transition is ever skipped; without it, a cycle
// whose value was never read commits "no sample".
func NewCached[T any](fetch FetchFunc[T], track bool) *Cached[T] {
	return &Cached[T]{fetch: fetch, track: track}
}

// Value returns the current cycle's sample, fetching and caching it on
// first access. Later calls in the same cycle return the cached sample
// without touching the link. Fetch errors are returned and not cached, so
// the next call retries.
func (c *Cached[T]) Value() (T, error) {
	if c.cur == nil {
		v, err := c.fetch()
		if err != nil {
			var zero T
			return zero, err
		}
		c.fetches++
		c.cur = &v
	}
	return *c.cur, nil
}

// Reset advances to a new cycle: the current sample is committed as the
// previous one and the cache is cleared so the next Value call fetches
// fresh. In tracking mode an unfetched current value is fetched first; a
// fetch error leaves the cache untouched so the cycle can be retried.
func (c *Cached[T]) Reset() error {
	if c.track && c.cur == nil {
		if _, err := c.Value(); err != nil {
			return err
		}
	}
	c.last = c.cur
	c.cur = nil
	return nil
}

// Last returns the previous cycle's sample. ok is false when no previous
// sample exists: before the first Reset, or after a non-tracking cycle in
// which the value was never fetched.
func (c *Cached[T]) Last() (T, bool) {
	if c.last == nil {
		var zero T
		return zero, false
	}
	return *c.last, true
}

// Fetches returns the number of completed fetches. Tests use it to verify
// the one-fetch-per-cycle contract.
func (c *Cached[T]) Fetches() int {
	return c.fetches
}
