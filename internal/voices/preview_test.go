package voices

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	fetches []string
	err     error
}

func (s *fakeSource) FetchVoiceSample(_ context.Context, voiceID string) (io.ReadCloser, error) {
	s.fetches = append(s.fetches, voiceID)
	if s.err != nil {
		return nil, s.err
	}

	return io.NopCloser(strings.NewReader("sample")), nil
}

type fakePlayer struct {
	plays   int
	stops   int
	playErr error
}

func (p *fakePlayer) Play(_ context.Context, audio io.ReadCloser) error {
	defer audio.Close()
	p.plays++

	return p.playErr
}

func (p *fakePlayer) Stop() { p.stops++ }

func TestPreviewer_Toggle(t *testing.T) {
	src := &fakeSource{}
	player := &fakePlayer{}
	prev := NewPreviewer(src, player)

	assert.Equal(t, "aria", prev.Toggle(context.Background(), "aria"))
	assert.Equal(t, "aria", prev.Playing())
	assert.Equal(t, 1, player.plays)

	// Same voice again stops the slot.
	assert.Equal(t, "", prev.Toggle(context.Background(), "aria"))
	assert.Equal(t, "", prev.Playing())
	assert.Equal(t, 1, len(src.fetches), "stopping must not re-fetch")
}

func TestPreviewer_SwitchingStopsPrevious(t *testing.T) {
	src := &fakeSource{}
	player := &fakePlayer{}
	prev := NewPreviewer(src, player)

	prev.Toggle(context.Background(), "aria")
	stopsBefore := player.stops

	assert.Equal(t, "atlas", prev.Toggle(context.Background(), "atlas"))

	assert.Greater(t, player.stops, stopsBefore, "prior preview stopped before the new one starts")
	assert.Equal(t, []string{"aria", "atlas"}, src.fetches)
	assert.Equal(t, "atlas", prev.Playing())
}

func TestPreviewer_FetchErrorAbsorbed(t *testing.T) {
	src := &fakeSource{err: errors.New("sample service down")}
	player := &fakePlayer{}
	prev := NewPreviewer(src, player)

	assert.Equal(t, "", prev.Toggle(context.Background(), "aria"))
	assert.Equal(t, "", prev.Playing(), "slot resets to idle on fetch failure")
	assert.Equal(t, 0, player.plays)
}

func TestPreviewer_PlayErrorAbsorbed(t *testing.T) {
	src := &fakeSource{}
	player := &fakePlayer{playErr: errors.New("device busy")}
	prev := NewPreviewer(src, player)

	assert.Equal(t, "", prev.Toggle(context.Background(), "aria"))
	assert.Equal(t, "", prev.Playing())
}
