package quota

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionGate(t *testing.T) {
	gate := NewSessionGate(2)

	assert.True(t, gate.HasQuota(FeaturePodcast))
	assert.Equal(t, 2, gate.Remaining(FeaturePodcast))

	gate.Consume(FeaturePodcast)
	assert.True(t, gate.HasQuota(FeaturePodcast))

	gate.Consume(FeaturePodcast)
	assert.False(t, gate.HasQuota(FeaturePodcast))
	assert.Equal(t, 0, gate.Remaining(FeaturePodcast))
}

func TestSessionGate_UnknownFeatureUnlimited(t *testing.T) {
	gate := NewSessionGate(0)

	assert.False(t, gate.HasQuota(FeaturePodcast))
	assert.True(t, gate.HasQuota(Feature("flashcards")))
	assert.Equal(t, -1, gate.Remaining(Feature("flashcards")))
}
