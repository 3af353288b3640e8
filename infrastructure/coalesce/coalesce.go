// Package coalesce provides a single reusable per-key one-in-flight
// primitive (Design Note §9), shared by OAuth access-token refresh (C2) and
// schedule-sync / background-job submission (C6, C15) so "only one request
// in flight per key" is implemented once, not re-invented per caller.
package coalesce

import "golang.org/x/sync/singleflight"

// Group coalesces concurrent calls that share a key into a single
// underlying call; every caller receives the same result.
type Group struct {
	group singleflight.Group
}

// New creates an empty Group.
func New() *Group {
	return &Group{}
}

// Do executes fn for key if no call for that key is already in flight,
// otherwise it waits for and shares the in-flight call's result.
func (g *Group) Do(key string, fn func() (any, error)) (any, error, bool) {
	return g.group.Do(key, fn)
}
