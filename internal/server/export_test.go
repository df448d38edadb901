package server

import (
	"testing"
	"time"
)

// SetStageDelay shortens job pacing for tests and restores it after.
func SetStageDelay(t *testing.T, d time.Duration) {
	t.Helper()

	prev := stageDelay
	stageDelay = d
	t.Cleanup(func() { stageDelay = prev })
}
