package recognizer

import "github.com/lowaak/calisthenics-coach/internal/voice"

// Unsupported is the recognizer for machines with no speech source
type Unsupported struct{}

var _ voice.Recognizer = Unsupported{}

func (Unsupported) Supported() bool { return false }

func (Unsupported) Start(voice.RecognizerEvents) error { return voice.ErrUnsupported }

func (Unsupported) Stop() error { return nil }
