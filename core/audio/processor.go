package audio

import "context"

// Processor defines the external transcoder operations the trim workflow needs.
type Processor interface {
	// Trim writes a copy of inputFile capped at maxSeconds to outputFile,
	// overwriting anything already there.
	Trim(ctx context.Context, inputFile, outputFile string, maxSeconds int) error
	// GetAudioDuration returns the duration of inputFile in seconds.
	GetAudioDuration(ctx context.Context, inputFile string) (float64, error)
}
