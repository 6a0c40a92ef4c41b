package synth

import "fmt"

// ----- Retrigger Mode ----- //

// RetriggerMode decides what happens when a note-on arrives for a note
// number that is already sounding.
type RetriggerMode int

const (
	// RetriggerOverlap allocates a new voice for every note-on, letting
	// several voices of the same note number ring at once.
	RetriggerOverlap RetriggerMode = iota
	// RetriggerReuse restarts the existing voice from its current
	// envelope level instead of allocating a second one.
	RetriggerReuse
)

// ----- Config ----- //

// Config holds everything the engine needs to know about its environment.
// It is passed by value into NewEngine and never mutated afterwards.
type Config struct {
	SampleRate      int
	ChannelCount    int
	BlockSize       int
	MaxPolyphony    int
	Retrigger       RetriggerMode
	EventBufferSize int
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		SampleRate:      48000,
		ChannelCount:    2,
		BlockSize:       512,
		MaxPolyphony:    32,
		Retrigger:       RetriggerOverlap,
		EventBufferSize: 256,
	}
}

// Validate ...
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate should be positive: %v", c.SampleRate)
	}
	if c.ChannelCount <= 0 {
		return fmt.Errorf("channel count should be positive: %v", c.ChannelCount)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size should be positive: %v", c.BlockSize)
	}
	if c.MaxPolyphony <= 0 {
		return fmt.Errorf("max polyphony should be positive: %v", c.MaxPolyphony)
	}
	if c.Retrigger != RetriggerOverlap && c.Retrigger != RetriggerReuse {
		return fmt.Errorf("unknown retrigger mode: %v", c.Retrigger)
	}
	if c.EventBufferSize <= 0 || c.EventBufferSize&(c.EventBufferSize-1) != 0 {
		return fmt.Errorf("event buffer size should be a power of 2: %v", c.EventBufferSize)
	}
	return nil
}
