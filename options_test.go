package sentry

import (
	"errors"
	"os"
	"testing"
)

func TestOptionsValidate(t *testing.T) {
	valid := []float64{0, 0.25, 0.5, 1}
	for _, rate := range valid {
		options := ClientOptions{TracesSampleRate: rate}
		if err := options.validate(); err != nil {
			t.Errorf("Unexpected error for rate %g: %v", rate, err)
		}
	}

	invalid := []float64{-0.01, 1.01, 5}
	for _, rate := range invalid {
		options := ClientOptions{TracesSampleRate: rate}
		if err := options.validate(); !errors.Is(err, ErrInvalidSampleRate) {
			t.Errorf("Expected ErrInvalidSampleRate for rate %g, got %v", rate, err)
		}
	}
}

func TestOptionsFromEnvDefaults(t *testing.T) {
	clearSentryEnv(t)

	options, err := OptionsFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if options.TracesSampleRate != 0 {
		t.Errorf("Expected default sample rate 0, got %g", options.TracesSampleRate)
	}
	if options.MaxBreadcrumbs != 0 {
		t.Errorf("Expected default max breadcrumbs 0, got %d", options.MaxBreadcrumbs)
	}
	if options.Debug {
		t.Error("Expected debug disabled by default")
	}
}

func TestOptionsFromEnvOverrides(t *testing.T) {
	clearSentryEnv(t)
	t.Setenv("SENTRY_DSN", "https://key@collector.example/42")
	t.Setenv("SENTRY_RELEASE", "1.2.3")
	t.Setenv("SENTRY_ENVIRONMENT", "staging")
	t.Setenv("SENTRY_TRACES_SAMPLE_RATE", "0.5")
	t.Setenv("SENTRY_MAX_BREADCRUMBS", "20")
	t.Setenv("SENTRY_DEBUG", "true")

	options, err := OptionsFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if options.Dsn != "https://key@collector.example/42" {
		t.Errorf("Unexpected DSN %q", options.Dsn)
	}
	if options.Release != "1.2.3" || options.Environment != "staging" {
		t.Errorf("Unexpected release/environment: %q/%q", options.Release, options.Environment)
	}
	if options.TracesSampleRate != 0.5 {
		t.Errorf("Expected sample rate 0.5, got %g", options.TracesSampleRate)
	}
	if options.MaxBreadcrumbs != 20 {
		t.Errorf("Expected 20 max breadcrumbs, got %d", options.MaxBreadcrumbs)
	}
	if !options.Debug {
		t.Error("Expected debug enabled")
	}
}

func TestOptionsFromEnvInvalidRate(t *testing.T) {
	clearSentryEnv(t)
	t.Setenv("SENTRY_TRACES_SAMPLE_RATE", "1.5")

	if _, err := OptionsFromEnv(); !errors.Is(err, ErrInvalidSampleRate) {
		t.Errorf("Expected ErrInvalidSampleRate, got %v", err)
	}
}

func clearSentryEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SENTRY_DSN", "SENTRY_RELEASE", "SENTRY_ENVIRONMENT", "SENTRY_DIST",
		"SENTRY_SERVER_NAME", "SENTRY_DEBUG", "SENTRY_TRACES_SAMPLE_RATE",
		"SENTRY_MAX_BREADCRUMBS",
	} {
		if value, ok := os.LookupEnv(key); ok {
			// Restore after the test while keeping it unset during it.
			t.Setenv(key, value)
			os.Unsetenv(key)
		}
	}
}
