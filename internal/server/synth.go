package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tcolgate/mp3"

	"github.com/castforge/castforge/internal/podcast"
)

// SpeechSynthesizer renders a scripted episode to an MP3 file and
// reports its spoken duration in seconds.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, rec *podcast.Record, speechRate float64, outPath string) (float64, error)
	Sample(ctx context.Context, voiceID string) ([]byte, error)
}

const (
	synthSampleRate = 24000

	// Rough speaking pace used to size tone segments.
	charsPerSecond = 15.0
)

// toneSynth fakes speech with per-voice sine tones so the full
// pipeline works offline. Each voice gets a distinct pitch.
type toneSynth struct{}

func (toneSynth) Synthesize(_ context.Context, rec *podcast.Record, speechRate float64, outPath string) (float64, error) {
	if speechRate <= 0 {
		speechRate = 1
	}

	file, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create audio file: %w", err)
	}
	defer file.Close()

	// shine-mp3 mono writes are buggy, so everything is stereo.
	enc := mp3encoder.NewEncoder(synthSampleRate, 2)

	var total float64

	for _, d := range rec.Dialogues {
		seconds := float64(len(d.Text)) / charsPerSecond / speechRate
		if seconds < 1 {
			seconds = 1
		}

		samples := toneSamples(voicePitch(d.VoiceID), seconds)
		if err := enc.Write(file, samples); err != nil {
			return 0, fmt.Errorf("failed to encode dialogue audio: %w", err)
		}

		total += seconds
	}

	return total, nil
}

func (toneSynth) Sample(_ context.Context, voiceID string) ([]byte, error) {
	var buf bytes.Buffer

	enc := mp3encoder.NewEncoder(synthSampleRate, 2)
	if err := enc.Write(&buf, toneSamples(voicePitch(voiceID), 1.5)); err != nil {
		return nil, fmt.Errorf("failed to encode voice sample: %w", err)
	}

	return buf.Bytes(), nil
}

// toneSamples renders an interleaved stereo sine tone with a short
// fade at both ends to avoid clicks.
func toneSamples(freq float64, seconds float64) []int16 {
	n := int(seconds * synthSampleRate)
	fade := synthSampleRate / 50 // 20ms
	samples := make([]int16, n*2)

	for i := 0; i < n; i++ {
		gain := 0.3
		if i < fade {
			gain *= float64(i) / float64(fade)
		}
		if n-i < fade {
			gain *= float64(n-i) / float64(fade)
		}

		v := int16(gain * math.MaxInt16 * math.Sin(2*math.Pi*freq*float64(i)/synthSampleRate))
		samples[i*2] = v
		samples[i*2+1] = v
	}

	return samples
}

// voicePitch maps a voice id to a stable tone frequency.
func voicePitch(voiceID string) float64 {
	var sum int
	for _, r := range voiceID {
		sum += int(r)
	}

	return 180 + float64(sum%8)*45
}

// openaiSynth renders real speech through the OpenAI TTS API, one
// request per dialogue line, concatenated into a single MP3.
type openaiSynth struct {
	apiKey string
}

func newOpenAISynth(apiKey string) *openaiSynth {
	return &openaiSynth{apiKey: apiKey}
}

// ttsVoices maps catalog voice ids onto the API's fixed voice set.
var ttsVoices = map[string]openai.AudioSpeechNewParamsVoice{
	"aria":    openai.AudioSpeechNewParamsVoiceShimmer,
	"atlas":   openai.AudioSpeechNewParamsVoiceOnyx,
	"juniper": openai.AudioSpeechNewParamsVoiceNova,
	"orion":   openai.AudioSpeechNewParamsVoiceEcho,
	"sage":    openai.AudioSpeechNewParamsVoiceFable,
	"nova":    openai.AudioSpeechNewParamsVoiceNova,
}

func ttsVoice(voiceID string) openai.AudioSpeechNewParamsVoice {
	if v, ok := ttsVoices[voiceID]; ok {
		return v
	}

	return openai.AudioSpeechNewParamsVoiceAlloy
}

func (s *openaiSynth) Synthesize(ctx context.Context, rec *podcast.Record, speechRate float64, outPath string) (float64, error) {
	if s.apiKey == "" {
		return 0, errors.New("API key required: set OPENAI_API_KEY")
	}

	client := openai.NewClient(option.WithAPIKey(s.apiKey))

	file, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create audio file: %w", err)
	}
	defer file.Close()

	for _, d := range rec.Dialogues {
		resp, err := client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
			Model: openai.SpeechModelTTS1,
			Voice: ttsVoice(d.VoiceID),
			Input: d.Text,
			Speed: openai.Float(speechRate),
		})
		if err != nil {
			return 0, fmt.Errorf("failed to synthesize speech via TTS API: %w", err)
		}

		_, copyErr := io.Copy(file, resp.Body)
		resp.Body.Close()
		if copyErr != nil {
			return 0, fmt.Errorf("failed to write speech segment: %w", copyErr)
		}
	}

	return probeDuration(outPath)
}

func (s *openaiSynth) Sample(ctx context.Context, voiceID string) ([]byte, error) {
	if s.apiKey == "" {
		return nil, errors.New("API key required: set OPENAI_API_KEY")
	}

	client := openai.NewClient(option.WithAPIKey(s.apiKey))

	resp, err := client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModelTTS1,
		Voice: ttsVoice(voiceID),
		Input: "Hi there, this is what I sound like hosting your podcast.",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize voice sample: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// probeDuration sums MP3 frame durations from the encoded file.
func probeDuration(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open audio for probing: %w", err)
	}
	defer file.Close()

	dec := mp3.NewDecoder(file)

	var (
		frame   mp3.Frame
		skipped int
		total   float64
	)

	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return 0, fmt.Errorf("failed to scan MP3 frames: %w", err)
		}

		total += frame.Duration().Seconds()
	}

	return total, nil
}
