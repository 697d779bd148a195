// Package httpclient builds the instrumented HTTP clients shared by the API clients.
package httpclient

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultDialKeepAlive   = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "http_client_requests_total"
)

// Options configure a client. Timeout is a hard per-request deadline; there is no retry.
type Options struct {
	Provider      string
	Timeout       time.Duration
	Transport     http.RoundTripper
	MeterProvider metric.MeterProvider
}

// New returns an *http.Client whose transport is traced by otelhttp and counted
// on http_client_requests_total.
func New(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Provider == "" {
		opts.Provider = "default"
	}

	base := opts.Transport
	if base == nil {
		base = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter("treasury-monitor/httpclient")
	// a failed instrument registration leaves the no-op counter in place
	counter, err := meter.Int64Counter(metricRequestCounter, metric.WithDescription("Total number of HTTP requests"))
	if err != nil {
		counter = nil
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: otelhttp.NewTransport(&countingTransport{
			next:     base,
			counter:  counter,
			provider: opts.Provider,
		}),
	}
}

type countingTransport struct {
	next     http.RoundTripper
	counter  metric.Int64Counter
	provider string
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if t.counter != nil {
		ok := err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300
		t.counter.Add(req.Context(), 1, metric.WithAttributes(
			attribute.String("provider", t.provider),
			attribute.Bool("success", ok),
		))
	}
	return resp, err
}
