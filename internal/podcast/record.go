package podcast

// Status is the lifecycle state reported by the backend for a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusError      Status = "error"
)

// Terminal reports whether the backend will never change this status again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusError:
		return true
	default:
		return false
	}
}

// Failed reports whether the backend gave up on the job.
func (s Status) Failed() bool {
	return s == StatusFailed || s == StatusError
}

// Job tracks one submitted generation task. Only the status poller
// mutates it; it is terminal at completed/failed/error.
type Job struct {
	ID           string `json:"podcastId"`
	Status       Status `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Dialogue is one attributed line of generated script.
type Dialogue struct {
	HostID   string `json:"hostId"`
	HostName string `json:"hostName"`
	VoiceID  string `json:"voiceId"`
	Text     string `json:"text"`
}

// Chapter marks a named topical section of the audio. Chapters are
// ordered by start time, non-overlapping, and partition [0, duration].
type Chapter struct {
	Title       string  `json:"title"`
	StartTime   float64 `json:"startTime"`
	EndTime     float64 `json:"endTime"`
	Description string  `json:"description,omitempty"`
}

// Contains reports whether t falls inside this chapter. Start times
// are inclusive and end times exclusive, so a boundary instant belongs
// to the later chapter.
func (c Chapter) Contains(t float64) bool {
	return c.StartTime <= t && t < c.EndTime
}

// ActiveChapter returns the index of the chapter containing t, or -1.
// The final chapter additionally claims its own end time so the last
// instant of playback still maps to a chapter.
func ActiveChapter(chapters []Chapter, t float64) int {
	for i, ch := range chapters {
		if ch.Contains(t) {
			return i
		}
	}

	if n := len(chapters); n > 0 && t == chapters[n-1].EndTime {
		return n - 1
	}

	return -1
}

// Record is a finished podcast as fetched from the backend. It is
// retrieved exactly once after the job completes and never mutated.
type Record struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Language     string     `json:"language"`
	Mode         Mode       `json:"mode"`
	NumHosts     int        `json:"numHosts"`
	Hosts        []Host     `json:"hosts"`
	Duration     float64    `json:"duration"`
	Dialogues    []Dialogue `json:"dialogues"`
	Chapters     []Chapter  `json:"chapters"`
	Summary      string     `json:"summary"`
	AudioURL     string     `json:"audioUrl"`
	ThumbnailURL string     `json:"thumbnailUrl,omitempty"`
	Status       Status     `json:"status"`
}
