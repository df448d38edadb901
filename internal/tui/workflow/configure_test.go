package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castforge/castforge/internal/podcast"
	"github.com/castforge/castforge/internal/source"
	"github.com/castforge/castforge/internal/tui/components/phases"
)

func newConfigure(t *testing.T, gen *mockGenerator, gate *mockQuota) (*configurePhase, *Session) {
	t.Helper()

	session := testSession(gen, gate)
	session.SourceFiles = []source.SourceFile{{Name: "doc.pdf", Text: "hello world"}}

	cp, ok := NewConfigurePhase(session).(*configurePhase)
	require.True(t, ok)
	cp.Init()

	return cp, session
}

func TestConfigure_SubmitHappyPath(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{submitID: "pod-9"}
	gate := &mockQuota{allowed: true}
	cp, session := newConfigure(t, gen, gate)

	_, cmd := cp.Update(keyRunes('g'))
	require.NotNil(t, cmd)
	assert.True(t, cp.submitting)

	_, cmd = cp.Update(runCmd(cmd))
	require.NotNil(t, cmd)
	assert.IsType(t, phases.NextPhaseMsg{}, runCmd(cmd))

	assert.Equal(t, "pod-9", session.JobID)
	assert.Equal(t, 1, gen.submitCalls)
	assert.False(t, cp.submitting)

	// Quota is consumed on completion, not on submission.
	assert.Equal(t, 0, gate.consumed)
}

func TestConfigure_SecondPressWhileSubmittingIsIgnored(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{submitID: "pod-9"}
	gate := &mockQuota{allowed: true}
	cp, _ := newConfigure(t, gen, gate)

	_, cmd := cp.Update(keyRunes('g'))
	require.NotNil(t, cmd)

	// Key input is swallowed while a submission is in flight.
	_, cmd2 := cp.Update(keyRunes('g'))
	assert.Nil(t, cmd2)

	runCmd(cmd)
	assert.Equal(t, 1, gen.submitCalls)
}

func TestConfigure_QuotaDenied(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{submitID: "pod-9"}
	gate := &mockQuota{allowed: false}
	cp, _ := newConfigure(t, gen, gate)

	_, cmd := cp.Update(keyRunes('g'))
	assert.Nil(t, cmd)
	assert.False(t, cp.submitting)
	assert.Contains(t, cp.View(), "generation limit reached")
	assert.Equal(t, 0, gen.submitCalls)
}

func TestConfigure_SubmitFailureSurfaces(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{submitErr: errors.New("backend unavailable")}
	gate := &mockQuota{allowed: true}
	cp, session := newConfigure(t, gen, gate)

	_, cmd := cp.Update(keyRunes('g'))
	require.NotNil(t, cmd)

	_, cmd = cp.Update(runCmd(cmd))
	assert.Nil(t, cmd)
	assert.False(t, cp.submitting)
	assert.Empty(t, session.JobID)
	assert.Contains(t, cp.View(), "backend unavailable")

	// The failure is recoverable: the next press submits again.
	gen.submitErr = nil
	_, cmd = cp.Update(keyRunes('g'))
	require.NotNil(t, cmd)
	runCmd(cmd)
	assert.Equal(t, 2, gen.submitCalls)
}

func TestConfigure_HostCountAdjustsWithinBounds(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{}
	gate := &mockQuota{allowed: true}
	cp, session := newConfigure(t, gen, gate)

	require.Equal(t, 2, session.Config.NumHosts)

	// cursor starts on the host count row
	cp.adjust(1)
	assert.Equal(t, 3, session.Config.NumHosts)
	assert.Len(t, session.Config.Hosts, 3)

	cp.adjust(1)
	assert.Equal(t, 4, session.Config.NumHosts)

	// Above the maximum is a no-op.
	cp.adjust(1)
	assert.Equal(t, 4, session.Config.NumHosts)

	for i := 0; i < 5; i++ {
		cp.adjust(-1)
	}
	assert.Equal(t, 1, session.Config.NumHosts, "cannot drop below one host")
}

func TestConfigure_ModeAndRateCycle(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{}
	gate := &mockQuota{allowed: true}
	cp, session := newConfigure(t, gen, gate)

	cp.cursor = cp.rowMode()
	cp.adjust(1)
	assert.Equal(t, podcast.ModeDetailed, session.Config.Mode)
	cp.adjust(-1)
	assert.Equal(t, podcast.ModeConversational, session.Config.Mode)
	cp.adjust(-1)
	assert.Equal(t, podcast.ModeInterview, session.Config.Mode, "cycling wraps")

	cp.cursor = cp.rowRate()
	cp.adjust(1)
	assert.Equal(t, 1.2, session.Config.SpeechRate)
}

func TestConfigure_EstimateTracksContent(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{}
	gate := &mockQuota{allowed: true}
	cp, session := newConfigure(t, gen, gate)

	short := session.Config.TargetDuration

	session.SourceFiles = []source.SourceFile{{Name: "big.pdf", Text: string(make([]byte, 8000))}}
	cp.Init()

	assert.Greater(t, session.Config.TargetDuration, short)
}

func TestConfigure_VoicePreviewToggles(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{}
	gate := &mockQuota{allowed: true}
	cp, session := newConfigure(t, gen, gate)

	cp.cursor = 1 // first host row
	_, cmd := cp.Update(keyRunes('p'))
	require.NotNil(t, cmd)
	runCmd(cmd)

	prev, ok := session.Previewer.(*mockPreviewer)
	require.True(t, ok)
	require.Len(t, prev.toggled, 1)
	assert.Equal(t, session.Config.Hosts[0].VoiceID, prev.toggled[0])
}
