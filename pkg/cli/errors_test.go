package cli

import (
	"errors"
	"testing"
)

func TestConfigErrorWithField(t *testing.T) {
	err := NewConfigError("auth.key_file", "required when auth is enabled")

	expected := "config error in auth.key_file: required when auth is enabled"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestConfigErrorWithoutField(t *testing.T) {
	err := NewConfigError("", "failed to load config")

	expected := "config error: failed to load config"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	cause := errors.New("listen tcp: address in use")
	err := NewCommandError("run", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	expected := "run: listen tcp: address in use"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"config error", NewConfigError("cache.max_bytes", "must be positive"), ExitConfig},
		{"wrapped config error", NewCommandError("validate", NewConfigError("", "bad yaml")), ExitConfig},
		{"command error", NewCommandError("run", errors.New("boom")), ExitFailure},
		{"plain error", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
