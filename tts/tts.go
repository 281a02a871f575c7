package tts

import "context"

// Synthesizer renders text into a complete encoded audio clip
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Close() error
}

// SynthesisOptions represents the configuration for speech synthesis
type SynthesisOptions struct {
	Voice                 string
	Speed                 float64
	Volume                float64
	Model                 string
	Format                interface{} // Will be specific to implementation
	LoudnessNormalization interface{} // Will be specific to implementation
}
