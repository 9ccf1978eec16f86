package lookup

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/goliatone/go-search-cache/cache"
)

const tracerName = "github.com/goliatone/go-search-cache/lookup"

type options struct {
	keys      cache.KeyDeriver
	ttl       time.Duration
	logger    *zap.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	jsonCodec bool
}

func defaultOptions() options {
	return options{
		keys:   cache.NewDefaultKeyDeriver(),
		ttl:    cache.DefaultTTL,
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
	}
}

// Option configures a Service.
type Option func(*options)

// WithKeyDeriver replaces the default key deriver.
func WithKeyDeriver(keys cache.KeyDeriver) Option {
	return func(o *options) {
		if keys != nil {
			o.keys = keys
		}
	}
}

// WithTTL sets the expiry applied to every cache write.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics enables prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer overrides the otel tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithJSONCodec stores payloads as JSON instead of msgpack.
func WithJSONCodec() Option {
	return func(o *options) {
		o.jsonCodec = true
	}
}
