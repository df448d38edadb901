// Package podcast defines the domain model for generated podcasts:
// the episode configuration, the asynchronous generation job, and the
// finished record with its dialogues and chapters.
package podcast

import (
	"errors"
	"fmt"
)

// Mode selects the conversational style of the generated script.
type Mode string

const (
	// ModeConversational is a casual back-and-forth between hosts.
	ModeConversational Mode = "conversational"
	// ModeDetailed is a thorough walkthrough of the source material.
	ModeDetailed Mode = "detailed"
	// ModeInterview has one host questioning the others.
	ModeInterview Mode = "interview"
)

// Modes lists every supported generation mode in display order.
var Modes = []Mode{ModeConversational, ModeDetailed, ModeInterview}

const (
	// MinHosts and MaxHosts bound how many hosts an episode may have.
	MinHosts = 1
	MaxHosts = 4
)

// SpeechRates lists the allowed speech rate multipliers.
var SpeechRates = []float64{0.8, 1.0, 1.2}

// Host is a configured synthetic speaker persona.
type Host struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	VoiceID string `json:"voiceId"`
}

// HostChange is a partial update to a single host. Nil fields are
// left untouched.
type HostChange struct {
	Name    *string
	VoiceID *string
}

// Config holds every user-tunable knob for one generation job.
// It is mutated freely during the Configure stage and frozen once a
// job has been submitted.
type Config struct {
	NumHosts       int     `json:"numHosts"`
	Hosts          []Host  `json:"hosts"`
	Language       string  `json:"language"`
	Mode           Mode    `json:"mode"`
	SpeechRate     float64 `json:"speechRate"`
	TargetDuration int     `json:"targetDuration"`
}

// DefaultConfig returns the configuration every workflow starts from.
// The fill function provides host defaults for each slot (name and
// voice assignment live in the voice catalog, not here).
func DefaultConfig(fill func(index int) Host) Config {
	cfg := Config{
		NumHosts:       2,
		Language:       "en",
		Mode:           ModeConversational,
		SpeechRate:     1.0,
		TargetDuration: 3,
	}
	cfg.Hosts = make([]Host, cfg.NumHosts)
	for i := range cfg.Hosts {
		cfg.Hosts[i] = fill(i)
	}

	return cfg
}

// SetNumHosts resizes the host list, filling new slots via fill.
// The hosts slice always ends up exactly NumHosts long.
func (c *Config) SetNumHosts(n int, fill func(index int) Host) error {
	if n < MinHosts || n > MaxHosts {
		return fmt.Errorf("host count %d out of range [%d, %d]", n, MinHosts, MaxHosts)
	}

	for len(c.Hosts) < n {
		c.Hosts = append(c.Hosts, fill(len(c.Hosts)))
	}
	c.Hosts = c.Hosts[:n]
	c.NumHosts = n

	return nil
}

// UpdateHost applies a partial change to one host slot. Voice ids are
// accepted as-is without catalog validation; unknown ids render with a
// generic fallback downstream.
func (c *Config) UpdateHost(index int, change HostChange) error {
	if index < 0 || index >= len(c.Hosts) {
		return fmt.Errorf("host index %d out of range", index)
	}

	if change.Name != nil {
		c.Hosts[index].Name = *change.Name
	}
	if change.VoiceID != nil {
		c.Hosts[index].VoiceID = *change.VoiceID
	}

	return nil
}

// SetSpeechRate sets the rate if it is one of the allowed values.
func (c *Config) SetSpeechRate(rate float64) error {
	for _, allowed := range SpeechRates {
		if rate == allowed {
			c.SpeechRate = rate
			return nil
		}
	}

	return fmt.Errorf("speech rate %.2f not allowed", rate)
}

// Validate checks the config invariants before submission.
func (c Config) Validate() error {
	if c.NumHosts < MinHosts || c.NumHosts > MaxHosts {
		return fmt.Errorf("host count %d out of range [%d, %d]", c.NumHosts, MinHosts, MaxHosts)
	}

	if len(c.Hosts) != c.NumHosts {
		return fmt.Errorf("have %d hosts, expected %d", len(c.Hosts), c.NumHosts)
	}

	for i, h := range c.Hosts {
		if h.Name == "" {
			return fmt.Errorf("host %d has no name", i+1)
		}
		if h.VoiceID == "" {
			return fmt.Errorf("host %d has no voice", i+1)
		}
	}

	if c.Language == "" {
		return errors.New("language is required")
	}

	if err := validateMode(c.Mode); err != nil {
		return err
	}

	cfg := c
	if err := cfg.SetSpeechRate(c.SpeechRate); err != nil {
		return err
	}

	if c.TargetDuration < 1 {
		return fmt.Errorf("target duration %d must be at least one minute", c.TargetDuration)
	}

	return nil
}

func validateMode(m Mode) error {
	for _, allowed := range Modes {
		if m == allowed {
			return nil
		}
	}

	return fmt.Errorf("unknown mode %q", m)
}
