package lock

import (
	"time"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
)

type options struct {
	holdDuration time.Duration
	timeProvider TimeProvider
}

// Option настраивает менеджер блокировок
type Option func(*options)

// WithHoldDuration задает длительность холда
func WithHoldDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.holdDuration = d
		}
	}
}

// WithTimeProvider подменяет источник времени
func WithTimeProvider(tp TimeProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.timeProvider = tp
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		holdDuration: domain.DefaultHoldDuration,
		timeProvider: &RealTimeProvider{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
