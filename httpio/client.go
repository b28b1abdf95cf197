// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httpio

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/z5labs/iofn/internal/logging"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type circuitOptions struct {
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	tripCount   uint32
	statusCodes []int
}

func withCircuitOption(f func(*circuitOptions)) Option {
	return func(o *options) {
		if o.co == nil {
			o.co = &circuitOptions{tripCount: 5}
		}
		f(o.co)
	}
}

// HalfOpenRequests is the maximum number of requests allowed to pass
// through while the circuit is half open.
func HalfOpenRequests(n uint32) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.maxRequests = n
	})
}

// OpenStateTimeout is how long the circuit stays open before it becomes
// half open.
func OpenStateTimeout(d time.Duration) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.timeout = d
	})
}

// CountResetInterval is the cyclic period in which failures are counted
// while the circuit is closed.
func CountResetInterval(d time.Duration) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.interval = d
	})
}

// TripAfter opens the circuit after n consecutive failures.
func TripAfter(n uint32) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.tripCount = n
	})
}

// TripOn counts responses with the given status codes as failures.
// By default every 5xx status code is counted.
func TripOn(statusCodes ...int) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.statusCodes = append(co.statusCodes, statusCodes...)
	})
}

type retryOptions struct {
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
}

func withRetryOption(f func(*retryOptions)) Option {
	return func(o *options) {
		if o.ro == nil {
			o.ro = &retryOptions{
				maxRetries: 3,
				waitMin:    100 * time.Millisecond,
				waitMax:    5 * time.Second,
			}
		}
		f(o.ro)
	}
}

// MaxRetries retries failed requests up to n times.
func MaxRetries(n int) Option {
	return withRetryOption(func(ro *retryOptions) {
		ro.maxRetries = n
	})
}

// RetryWait bounds the exponential backoff between retries.
func RetryWait(min, max time.Duration) Option {
	return withRetryOption(func(ro *retryOptions) {
		ro.waitMin = min
		ro.waitMax = max
	})
}

type options struct {
	timeout time.Duration
	rt      http.RoundTripper

	name       string
	logHandler slog.Handler

	co *circuitOptions
	ro *retryOptions
}

// Option configures a [http.Client] returned by [NewClient].
type Option func(*options)

// Name names the client in logs and traces.
func Name(s string) Option {
	return func(o *options) {
		o.name = s
	}
}

// RoundTripper sets the base transport of the client.
func RoundTripper(rt http.RoundTripper) Option {
	return func(o *options) {
		o.rt = rt
	}
}

// Timeout provides a global timeout value for the http.Client.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// LogHandler configures the slog.Handler used for logging.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// NewClient returns a [http.Client] which logs and traces every request.
// Circuit breaking and retries are only enabled by their options.
func NewClient(opts ...Option) *http.Client {
	o := &options{
		name:       "iofn",
		rt:         http.DefaultTransport,
		logHandler: logging.NoopHandler{},
	}
	for _, opt := range opts {
		opt(o)
	}

	logger := logging.New(o.logHandler).With(logging.String("http_client", o.name))

	var rt http.RoundTripper = &logRoundTripper{
		base: o.rt,
		log:  logger,
	}
	if o.co != nil {
		rt = newCircuitRoundTripper(o.name, logger, o.co, rt)
	}
	rt = otelhttp.NewTransport(rt)

	if o.ro == nil {
		return &http.Client{
			Timeout:   o.timeout,
			Transport: rt,
		}
	}

	ro := o.ro
	rc := retryablehttp.Client{
		HTTPClient: &http.Client{
			Timeout:   o.timeout,
			Transport: rt,
		},
		Logger:       retryLogger{log: logger},
		RetryWaitMin: ro.waitMin,
		RetryWaitMax: ro.waitMax,
		RetryMax:     ro.maxRetries,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	return rc.StandardClient()
}

type retryLogger struct {
	log *slog.Logger
}

func (l retryLogger) Error(msg string, kvs ...any) { l.log.Error(msg, kvs...) }
func (l retryLogger) Info(msg string, kvs ...any)  { l.log.Info(msg, kvs...) }
func (l retryLogger) Debug(msg string, kvs ...any) { l.log.Debug(msg, kvs...) }
func (l retryLogger) Warn(msg string, kvs ...any)  { l.log.Warn(msg, kvs...) }

type logRoundTripper struct {
	base http.RoundTripper
	log  *slog.Logger
}

func (rt *logRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()
	rt.log.DebugContext(
		ctx,
		"request sent",
		logging.String("method", req.Method),
		logging.String("url", req.URL.String()),
	)

	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		rt.log.ErrorContext(
			ctx,
			"request failed",
			logging.String("url", req.URL.String()),
			logging.Error(err),
		)
		return nil, err
	}

	rt.log.DebugContext(
		ctx,
		"response received",
		logging.String("url", req.URL.String()),
		logging.Int("status_code", resp.StatusCode),
		logging.Duration("latency", time.Since(start)),
	)
	return resp, nil
}

type statusCodeError struct {
	resp *http.Response
}

func (e statusCodeError) Error() string {
	return "unsuccessful status code: " + e.resp.Status
}

type circuitRoundTripper struct {
	base  http.RoundTripper
	cb    *gobreaker.CircuitBreaker
	fails func(int) bool
}

func newCircuitRoundTripper(name string, logger *slog.Logger, co *circuitOptions, base http.RoundTripper) *circuitRoundTripper {
	codes := map[int]struct{}{}
	for _, code := range co.statusCodes {
		codes[code] = struct{}{}
	}

	return &circuitRoundTripper{
		base: base,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: co.maxRequests,
			Interval:    co.interval,
			Timeout:     co.timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= co.tripCount
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				switch to {
				case gobreaker.StateOpen:
					logger.Error("circuit has been opened")
				case gobreaker.StateHalfOpen:
					logger.Warn(
						"circuit is now half open and letting some requests through",
						logging.Uint32("max_requests_allowed_through", co.maxRequests),
					)
				case gobreaker.StateClosed:
					logger.Info("circuit has been closed")
				}
			},
		}),
		fails: func(code int) bool {
			if len(codes) == 0 {
				return code >= http.StatusInternalServerError
			}
			_, ok := codes[code]
			return ok
		},
	}
}

func (rt *circuitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	v, err := rt.cb.Execute(func() (interface{}, error) {
		resp, err := rt.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if rt.fails(resp.StatusCode) {
			return nil, statusCodeError{resp: resp}
		}
		return resp, nil
	})

	var serr statusCodeError
	if errors.As(err, &serr) {
		return serr.resp, nil
	}
	if err != nil {
		return nil, err
	}
	return v.(*http.Response), nil
}
