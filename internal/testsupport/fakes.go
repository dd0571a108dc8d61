// Package testsupport holds test doubles and fixture helpers shared by package tests.
package testsupport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// FakeProcessor stands in for ffmpeg/ffprobe. Trim copies the input to the
// output, optionally truncated to MaxBytes, so tests can assert exact bytes.
type FakeProcessor struct {
	mu sync.Mutex

	TrimErr     error
	Durations   map[string]float64
	DurationErr error

	TrimCalls  []TrimCall
	ProbeCalls int
}

// TrimCall records the arguments of one Trim invocation.
type TrimCall struct {
	Input      string
	Output     string
	MaxSeconds int
}

func (f *FakeProcessor) Trim(_ context.Context, inputFile, outputFile string, maxSeconds int) error {
	f.mu.Lock()
	f.TrimCalls = append(f.TrimCalls, TrimCall{Input: inputFile, Output: outputFile, MaxSeconds: maxSeconds})
	trimErr := f.TrimErr
	f.mu.Unlock()

	if trimErr != nil {
		// leave a partial file behind like a crashed transcoder would
		_ = os.WriteFile(outputFile, []byte("partial"), 0o644)
		return trimErr
	}
	return copyFile(inputFile, outputFile)
}

func (f *FakeProcessor) GetAudioDuration(_ context.Context, inputFile string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ProbeCalls++
	if f.DurationErr != nil {
		return 0, f.DurationErr
	}
	d, ok := f.Durations[inputFile]
	if !ok {
		return 0, fmt.Errorf("no duration for %s", inputFile)
	}
	return d, nil
}

// Calls returns a copy of the recorded Trim invocations.
func (f *FakeProcessor) Calls() []TrimCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TrimCall(nil), f.TrimCalls...)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ErrFakeTranscoder is a convenient failure for FakeProcessor.TrimErr.
var ErrFakeTranscoder = errors.New("ffmpeg execution failed: exit status 1")
