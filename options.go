package sentry

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// ErrInvalidSampleRate is returned at hub construction when
// TracesSampleRate is outside [0, 1]. Unlike every runtime tracing
// failure, this one is surfaced: it indicates a deployment mistake, not a
// transient condition.
var ErrInvalidSampleRate = errors.New("sentry: traces sample rate must be in [0, 1]")

// SamplingContext is handed to a TracesSampler when a transaction is
// started: the transaction's identity plus an arbitrary custom context
// supplied by the caller of StartTransaction.
type SamplingContext struct {
	TransactionName string
	Operation       string
	// Parent is the continued upstream span context, if the transaction
	// was started from a decoded trace header.
	Parent *SpanContext
	// Custom carries caller-supplied key/value context.
	Custom map[string]interface{}
}

// TracesSampler decides whether a transaction is sampled. Returning
// SampledUndefined defers to the configured TracesSampleRate. When a
// sampler is configured it has final say over the rate, but an upstream
// decision carried in the trace header wins over both, keeping a trace's
// sampling consistent end to end.
type TracesSampler func(ctx SamplingContext) Sampled

// ClientOptions configures a Hub. The zero value is valid: tracing
// disabled by rate 0, default breadcrumb limit, silent logger.
type ClientOptions struct {
	// Dsn identifies the remote collector. It is carried for transports;
	// the core never dials it.
	Dsn string `envconfig:"DSN"`
	// Release of the host application, e.g. a git SHA or semantic version.
	Release string `envconfig:"RELEASE"`
	// Environment name, e.g. "production" or "staging".
	Environment string `envconfig:"ENVIRONMENT"`
	// Dist disambiguates build variants of the same release.
	Dist string `envconfig:"DIST"`
	// ServerName is the host the events are generated on.
	ServerName string `envconfig:"SERVER_NAME"`
	// Debug swaps the silent default logger for a development logger.
	Debug bool `envconfig:"DEBUG" default:"false"`
	// TracesSampleRate is the probability in [0, 1] that a transaction
	// without an upstream or sampler decision is sampled.
	TracesSampleRate float64 `envconfig:"TRACES_SAMPLE_RATE" default:"0"`
	// TracesSampler, when set, has final say over TracesSampleRate.
	TracesSampler TracesSampler `envconfig:"-" ignored:"true"`
	// MaxBreadcrumbs bounds each scope's breadcrumb trail. Zero selects
	// the default of 100.
	MaxBreadcrumbs int `envconfig:"MAX_BREADCRUMBS" default:"0"`
	// Logger receives the SDK's diagnostics (late mutations, dropped
	// spans, malformed headers). Nil means silent (zap.NewNop), or a
	// development logger when Debug is set.
	Logger *zap.Logger `envconfig:"-" ignored:"true"`
}

// OptionsFromEnv loads options from SENTRY_-prefixed environment
// variables (SENTRY_DSN, SENTRY_TRACES_SAMPLE_RATE, ...) and validates
// them.
func OptionsFromEnv() (ClientOptions, error) {
	var options ClientOptions
	if err := envconfig.Process("sentry", &options); err != nil {
		return ClientOptions{}, fmt.Errorf("sentry: loading options from environment: %w", err)
	}
	if err := options.validate(); err != nil {
		return ClientOptions{}, err
	}
	return options, nil
}

// validate rejects configuration mistakes that must fail at startup.
func (o *ClientOptions) validate() error {
	if o.TracesSampleRate < 0 || o.TracesSampleRate > 1 {
		return fmt.Errorf("%w: got %g", ErrInvalidSampleRate, o.TracesSampleRate)
	}
	return nil
}

// logger resolves the diagnostic logger from the options.
func (o *ClientOptions) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	if o.Debug {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}
	return zap.NewNop()
}
