package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/gen2brain/malgo"
	"github.com/tcolgate/mp3"

	"github.com/castforge/castforge/internal/audio"
)

const (
	// go-mp3 always decodes to 16-bit stereo.
	decodedChannels       = 2
	decodedBytesPerSample = 4 // 2 channels * 2 bytes

	feedChunkBytes = 8192
	feedQueueDepth = 16

	// ~100ms of recent samples for the waveform at 44.1kHz.
	monitorCapacity = 8192
)

// StreamTransport fetches an episode over HTTP into a session-scoped
// temp file, decodes it with go-mp3, and feeds the local output
// device. It implements Transport.
type StreamTransport struct {
	mu sync.Mutex

	file       *os.File
	dec        *gomp3.Decoder
	sampleRate int
	duration   float64

	bytesRead int64
	rate      float64
	volume    float64
	playing   bool

	dev    audio.Device
	dataC  chan audio.DataPacket
	stopC  chan struct{}
	feedWG sync.WaitGroup

	monitor *audio.SampleRingBuffer

	errOnce sync.Once
	err     error
}

// NewStreamTransport downloads url and prepares it for playback. The
// temp copy lives only until Close; nothing is retained beyond the
// session.
func NewStreamTransport(ctx context.Context, httpc *http.Client, url string) (*StreamTransport, error) {
	file, err := fetchToTemp(ctx, httpc, url)
	if err != nil {
		return nil, err
	}

	duration, err := probeMP3Duration(file)
	if err != nil {
		// Duration stays best-effort; go-mp3's byte length covers us.
		duration = 0
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		os.Remove(file.Name())

		return nil, fmt.Errorf("failed to rewind audio file: %w", err)
	}

	dec, err := gomp3.NewDecoder(file)
	if err != nil {
		file.Close()
		os.Remove(file.Name())

		return nil, fmt.Errorf("failed to open MP3 decoder: %w", err)
	}

	t := &StreamTransport{
		file:       file,
		dec:        dec,
		sampleRate: dec.SampleRate(),
		duration:   duration,
		rate:       1,
		volume:     1,
		monitor:    audio.NewSampleRingBuffer(monitorCapacity),
	}

	if t.duration == 0 && dec.Length() > 0 {
		t.duration = float64(dec.Length()) / float64(decodedBytesPerSample*t.sampleRate)
	}

	return t, nil
}

func fetchToTemp(ctx context.Context, httpc *http.Client, url string) (*os.File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build audio request: %w", err)
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio fetch returned status %d", resp.StatusCode)
	}

	file, err := os.CreateTemp("", "castforge-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp audio file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(file.Name())

		return nil, fmt.Errorf("failed to save audio stream: %w", err)
	}

	return file, nil
}

// probeMP3Duration sums frame durations without a full PCM decode.
func probeMP3Duration(r io.ReadSeeker) (float64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	frameDec := mp3.NewDecoder(r)

	var (
		frame   mp3.Frame
		skipped int
		total   float64
	)

	for {
		if err := frameDec.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return 0, fmt.Errorf("failed to scan MP3 frames: %w", err)
		}

		total += frame.Duration().Seconds()
	}

	return total, nil
}

func (t *StreamTransport) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return t.err
	}
	if t.playing {
		return nil
	}

	if t.dev == nil {
		if err := t.allocDeviceLocked(); err != nil {
			t.setError(err)
			return err
		}
	}

	if err := t.dev.Start(context.Background()); err != nil {
		t.setError(err)
		return err
	}
	t.playing = true

	return nil
}

// allocDeviceLocked builds the output device at the current rate and
// starts the feeder. Speed changes re-alloc the device: the decoder
// always produces at its native rate and the device clock does the
// time stretching.
func (t *StreamTransport) allocDeviceLocked() error {
	t.dataC = make(chan audio.DataPacket, feedQueueDepth)
	t.stopC = make(chan struct{})

	dev := audio.NewDevice(&audio.DeviceConfig{
		Format:           malgo.FormatS16,
		PlaybackChannels: decodedChannels,
		SampleRate:       int(float64(t.sampleRate) * t.rate),
	})

	if err := dev.PlayFrom(context.Background(), t.dataC); err != nil {
		return fmt.Errorf("failed to allocate playback device: %w", err)
	}
	t.dev = dev

	t.feedWG.Add(1)
	go t.feed(t.dataC, t.stopC)

	return nil
}

// feed moves decoded PCM from the decoder into the device queue until
// EOF or teardown.
func (t *StreamTransport) feed(dataC chan audio.DataPacket, stopC chan struct{}) {
	defer t.feedWG.Done()
	defer close(dataC)

	for {
		select {
		case <-stopC:
			return
		default:
		}

		buf := make([]byte, feedChunkBytes)

		t.mu.Lock()
		n, err := t.dec.Read(buf)
		if n > 0 {
			t.bytesRead += int64(n)
		}
		gain := t.volume
		t.mu.Unlock()

		if n > 0 {
			pkt := buf[:n]
			audio.ScaleVolume(pkt, gain)
			t.monitor.Write(audio.BytesToInt16(pkt))

			select {
			case dataC <- pkt:
			case <-stopC:
				return
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.setError(fmt.Errorf("MP3 decode failed: %w", err))
			}

			return
		}
	}
}

func (t *StreamTransport) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev != nil {
		_ = t.dev.Stop(context.Background())
	}
	t.playing = false
}

func (t *StreamTransport) Seek(seconds float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return t.err
	}

	if seconds < 0 {
		seconds = 0
	}

	offset := int64(seconds*float64(t.sampleRate)) * decodedBytesPerSample
	if total := t.dec.Length(); total > 0 && offset > total {
		offset = total
	}

	if _, err := t.dec.Seek(offset, io.SeekStart); err != nil {
		err = fmt.Errorf("seek failed: %w", err)
		t.setError(err)

		return err
	}
	t.bytesRead = offset

	return nil
}

func (t *StreamTransport) Position() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return float64(t.bytesRead) / float64(decodedBytesPerSample*t.sampleRate)
}

func (t *StreamTransport) Duration() float64 {
	return t.duration
}

func (t *StreamTransport) SetRate(rate float64) error {
	t.mu.Lock()

	if rate <= 0 {
		t.mu.Unlock()
		return fmt.Errorf("rate %.2f must be positive", rate)
	}

	if rate == t.rate {
		t.mu.Unlock()
		return nil
	}

	t.rate = rate
	wasPlaying := t.playing
	t.teardownDeviceLocked()
	t.mu.Unlock()

	// Join the old feeder before reallocating so the new one is the
	// only reader on the decoder.
	t.feedWG.Wait()

	if wasPlaying {
		return t.Play()
	}

	return nil
}

func (t *StreamTransport) SetVolume(volume float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	t.volume = volume
}

func (t *StreamTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.err
}

func (t *StreamTransport) SampleLevels(n int) []int16 {
	return t.monitor.ReadSamples(n)
}

// teardownDeviceLocked stops the feeder and releases the device. The
// feeder exits on stopC; callers that need it fully drained must join
// feedWG after releasing t.mu.
func (t *StreamTransport) teardownDeviceLocked() {
	if t.dev == nil {
		return
	}

	close(t.stopC)
	_ = t.dev.Stop(context.Background())
	t.dev.Dealloc(context.Background())
	t.dev = nil
	t.playing = false
}

func (t *StreamTransport) setError(err error) {
	t.errOnce.Do(func() {
		t.err = err
	})
}

// Close releases the device, the decoder, and the temp file.
func (t *StreamTransport) Close() {
	t.mu.Lock()
	t.teardownDeviceLocked()
	file := t.file
	t.file = nil
	t.mu.Unlock()

	t.feedWG.Wait()

	if file != nil {
		file.Close()
		os.Remove(file.Name())
	}
}
