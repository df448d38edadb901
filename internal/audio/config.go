package audio

import (
	"github.com/gen2brain/malgo"
)

// DeviceConfig configures the playback device.
type DeviceConfig struct {
	Format           malgo.FormatType
	PlaybackChannels int
	SampleRate       int
}
