package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/gen2brain/malgo"

	"github.com/castforge/castforge/internal/audio"
)

const maxSampleBytes = 2 << 20

// MP3SamplePlayer plays short voice sample clips through the default
// output device. It holds at most one device at a time; Play tears
// down whatever was playing before.
type MP3SamplePlayer struct {
	mu    sync.Mutex
	dev   audio.Device
	stopC chan struct{}
}

// NewMP3SamplePlayer returns an idle sample player.
func NewMP3SamplePlayer() *MP3SamplePlayer {
	return &MP3SamplePlayer{}
}

// Play decodes the clip and starts it on a fresh device. The body is
// consumed and closed before playback begins so short clips never hold
// a connection open.
func (p *MP3SamplePlayer) Play(ctx context.Context, body io.ReadCloser) error {
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, maxSampleBytes))
	if err != nil {
		return fmt.Errorf("failed to read voice sample: %w", err)
	}

	dec, err := gomp3.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to decode voice sample: %w", err)
	}

	p.Stop()

	dataC := make(chan audio.DataPacket, feedQueueDepth)
	stopC := make(chan struct{})

	dev := audio.NewDevice(&audio.DeviceConfig{
		Format:           malgo.FormatS16,
		PlaybackChannels: decodedChannels,
		SampleRate:       dec.SampleRate(),
	})

	if err := dev.PlayFrom(ctx, dataC); err != nil {
		return fmt.Errorf("failed to allocate sample device: %w", err)
	}

	if err := dev.Start(ctx); err != nil {
		dev.Dealloc(ctx)
		return fmt.Errorf("failed to start sample device: %w", err)
	}

	p.mu.Lock()
	p.dev = dev
	p.stopC = stopC
	p.mu.Unlock()

	go func() {
		defer close(dataC)

		for {
			buf := make([]byte, feedChunkBytes)

			n, err := dec.Read(buf)
			if n > 0 {
				select {
				case dataC <- buf[:n]:
				case <-stopC:
					return
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) {
					slog.Debug("voice sample decode error", "error", err)
				}

				return
			}
		}
	}()

	return nil
}

// Stop halts the current clip, if any, and releases its device.
func (p *MP3SamplePlayer) Stop() {
	p.mu.Lock()
	dev := p.dev
	stopC := p.stopC
	p.dev = nil
	p.stopC = nil
	p.mu.Unlock()

	if dev == nil {
		return
	}

	close(stopC)
	_ = dev.Stop(context.Background())
	dev.Dealloc(context.Background())
}
