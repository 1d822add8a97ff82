// Package dispatcher routes bridge commands to their handlers. Every tuning
// command mutates single-threaded state, so dispatch is synchronous: a
// command has finished against the host before its reply leaves the bridge.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event is one incoming command from the host bridge.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger is the pluggable logging surface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged wraps the handler with debug and error logging.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers and records per-command
// metrics on the global OTel meter, which is a no-op without a configured
// provider.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	processed metric.Int64Counter
	failed    metric.Int64Counter
	duration  metric.Float64Histogram
}

// New creates a dispatcher. logger may be nil.
func New(logger Logger) (*Dispatcher, error) {
	m := otel.Meter("github.com/vtuner/extension/internal/dispatcher")

	processed, err := m.Int64Counter(
		"vtuner.dispatcher.commands.processed",
		metric.WithDescription("Commands dispatched to a handler"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	failed, err := m.Int64Counter(
		"vtuner.dispatcher.commands.failed",
		metric.WithDescription("Commands whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	duration, err := m.Float64Histogram(
		"vtuner.dispatcher.command.duration",
		metric.WithDescription("Handler execution time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &Dispatcher{
		handlers:  make(map[string]HandlerFunc),
		logger:    logger,
		processed: processed,
		failed:    failed,
		duration:  duration,
	}, nil
}

// Register adds a handler for the given command.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logged {
		h = d.withLogging(command, h)
	}
	d.handlers[command] = h
}

// Dispatch routes an event to its handler and records the outcome.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.handlers[e.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}

	start := time.Now()
	result, err := h(e)

	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("command", e.Command))
	d.processed.Add(ctx, 1, attrs)
	if err != nil {
		d.failed.Add(ctx, 1, attrs)
	}
	d.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000.0, attrs)

	return result, err
}

// HasHandler reports whether a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.handlers[command]
	return ok
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		if d.logger != nil {
			d.logger.Debug("dispatching", "command", command, "args", len(e.Args))
		}
		result, err := h(e)
		if err != nil && d.logger != nil {
			d.logger.Error("handler failed", "command", command, "error", err)
		}
		return result, err
	}
}
