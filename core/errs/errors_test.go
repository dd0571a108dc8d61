package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"hourtrim/core/errs"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", errs.Validation("Missing fields"), http.StatusBadRequest},
		{"not found", errs.NotFound("Metadata not found"), http.StatusNotFound},
		{"auth", errs.Auth("Invalid credentials"), http.StatusUnauthorized},
		{"execution", errs.Execution("Trimming failed", errors.New("exit status 1")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", errs.NotFound("Input file not found")), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errs.Status(tt.err); got != tt.want {
				t.Fatalf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExecutionKeepsCause(t *testing.T) {
	cause := errors.New("ffmpeg: exit status 1")
	err := errs.Execution("Trimming failed", cause)

	if !errors.Is(err, errs.ErrExecution) {
		t.Fatal("expected execution marker")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be retained")
	}
	if got := errs.Message(err, "x"); got != "Trimming failed" {
		t.Fatalf("Message = %q", got)
	}
	if got := errs.Detail(err); got != cause.Error() {
		t.Fatalf("Detail = %q", got)
	}
}

func TestMessageFallback(t *testing.T) {
	if got := errs.Message(errors.New("raw"), "Signup failed"); got != "Signup failed" {
		t.Fatalf("Message = %q", got)
	}
}
