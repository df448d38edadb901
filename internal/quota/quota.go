// Package quota gates feature usage for the current session. The
// workflow consults it before submitting a generation job and notifies
// it after a job completes successfully.
package quota

import "sync"

// Feature names a gated product capability.
type Feature string

// FeaturePodcast gates podcast generation.
const FeaturePodcast Feature = "podcast"

// DefaultPodcastLimit is how many generations a session gets.
const DefaultPodcastLimit = 3

// Gate is the usage-limit collaborator: a synchronous pre-submission
// check and a post-success increment.
type Gate interface {
	HasQuota(f Feature) bool
	Consume(f Feature)
}

// SessionGate counts usage in memory for the life of one session.
type SessionGate struct {
	mu     sync.Mutex
	limits map[Feature]int
	used   map[Feature]int
}

// NewSessionGate creates a gate with the given podcast limit.
func NewSessionGate(podcastLimit int) *SessionGate {
	return &SessionGate{
		limits: map[Feature]int{FeaturePodcast: podcastLimit},
		used:   map[Feature]int{},
	}
}

// HasQuota reports whether another use of f is allowed. Unknown
// features are unlimited.
func (g *SessionGate) HasQuota(f Feature) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	limit, ok := g.limits[f]
	if !ok {
		return true
	}

	return g.used[f] < limit
}

// Consume records one successful use of f.
func (g *SessionGate) Consume(f Feature) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.used[f]++
}

// Remaining returns how many uses of f are left, or -1 if unlimited.
func (g *SessionGate) Remaining(f Feature) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	limit, ok := g.limits[f]
	if !ok {
		return -1
	}

	remaining := limit - g.used[f]
	if remaining < 0 {
		remaining = 0
	}

	return remaining
}
