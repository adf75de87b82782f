package services

import (
	"io"
	"log/slog"
	"time"

	"event-ticketing-manager/internal/utils"
)

// LifecyclePolicy holds the time rules of the ticket lifecycle.
type LifecyclePolicy struct {
	// EnforceReservationWindow rejects reservations once the certification
	// window of the event has opened.
	EnforceReservationWindow bool
	// EnforcePaymentWindow rejects payments once the event has started.
	EnforcePaymentWindow bool
	// EnforceValidationWindow rejects validations before the certification
	// window of the event has opened.
	EnforceValidationWindow bool

	CertificationLead time.Duration
	ReservationTTL    time.Duration
	EventDuration     time.Duration
}

// DefaultLifecyclePolicy returns the policy with every window enforced.
func DefaultLifecyclePolicy() LifecyclePolicy {
	return LifecyclePolicy{
		EnforceReservationWindow: true,
		EnforcePaymentWindow:     true,
		EnforceValidationWindow:  true,
		CertificationLead:        5 * time.Hour,
		ReservationTTL:           24 * time.Hour,
		EventDuration:            2 * time.Hour,
	}
}

// Option configures the lifecycle services.
type Option func(*serviceOptions)

type serviceOptions struct {
	policy  LifecyclePolicy
	locker  Locker
	codes   utils.CodeGenerator
	ids     utils.IDGenerator
	metrics MetricsRecorder
	logger  *slog.Logger
}

func newServiceOptions(opts []Option) serviceOptions {
	o := serviceOptions{
		policy: DefaultLifecyclePolicy(),
		codes:  utils.RandomCodeGenerator{},
		ids:    utils.UUIDGenerator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.locker == nil {
		o.locker = NewLocalLocker()
	}
	if o.metrics == nil {
		o.metrics = noopMetrics{}
	}
	return o
}

// WithPolicy overrides the default lifecycle policy.
func WithPolicy(p LifecyclePolicy) Option {
	return func(o *serviceOptions) { o.policy = p }
}

// WithLocker sets the locker used to serialize reservations per event.
func WithLocker(l Locker) Option {
	return func(o *serviceOptions) {
		if l != nil {
			o.locker = l
		}
	}
}

// WithCodeGenerator replaces the human-readable code generator.
func WithCodeGenerator(g utils.CodeGenerator) Option {
	return func(o *serviceOptions) {
		if g != nil {
			o.codes = g
		}
	}
}

// WithIDGenerator replaces the id generator.
func WithIDGenerator(g utils.IDGenerator) Option {
	return func(o *serviceOptions) {
		if g != nil {
			o.ids = g
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveReservation(string, int)          {}
func (noopMetrics) ObserveTransition(string, string)        {}
func (noopMetrics) ObserveSweep(SweepResult, time.Duration) {}
func (noopMetrics) ObserveLockWait(time.Duration)           {}
