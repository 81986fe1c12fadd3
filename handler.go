package metric

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// HandlerOpts configures the pull-mode HTTP exporter (C·handler, §4.6).
type HandlerOpts struct {
	// Timeout bounds how long a single scrape may take. The
	// X-Prometheus-Scrape-Timeout-Seconds request header, when present
	// and smaller, takes precedence.
	Timeout time.Duration
	// MaxRequestsInFlight limits concurrent scrapes; 0 means unlimited.
	MaxRequestsInFlight int
	// Predicate, when set, is consulted before every scrape; returning
	// false serves 403 Forbidden without touching the registry.
	Predicate func(*http.Request) bool
	// Logger overrides the package default logger.
	Logger zerolog.Logger
}

// Handler returns an http.Handler that serves reg's metrics, honoring
// HandlerOpts: in the text exposition format by default, or as delimited
// protobuf when the request's Accept header asks for it (negotiateProto).
func Handler(reg *Registry, opts HandlerOpts) http.Handler {
	logger := defaultLogger
	if !reflect.DeepEqual(opts.Logger, zeroLogger) {
		logger = opts.Logger
	}
	logger = logger.With().Str("subcomponent", "handler").Logger()

	var limiter chan struct{}
	if opts.MaxRequestsInFlight > 0 {
		limiter = make(chan struct{}, opts.MaxRequestsInFlight)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if opts.Predicate != nil && !opts.Predicate(r) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		if limiter != nil {
			select {
			case limiter <- struct{}{}:
				defer func() { <-limiter }()
			default:
				http.Error(w, "too many concurrent scrapes", http.StatusServiceUnavailable)
				return
			}
		}

		timeout := selectScrapeTimeout(r, opts.Timeout)
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		wantsProto := negotiateProto(r.Header.Get("Accept"))

		body, contentType, err := collectWithContext(ctx, reg, wantsProto)
		if err != nil {
			logger.Error().Err(err).Msg("scrape failed")
			if ctx.Err() != nil {
				http.Error(w, "metrics gathering timed out", http.StatusServiceUnavailable)
			} else {
				http.Error(w, fmt.Sprintf("error gathering metrics: %v", err), http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
}

// negotiateProto reports whether an Accept header asks for the delimited
// binary protobuf format rather than the default text exposition format
// (A5, §4.9): a scraper requests it with the "application/vnd.google.protobuf"
// media type and "encoding=delimited".
func negotiateProto(accept string) bool {
	return strings.Contains(accept, "application/vnd.google.protobuf") &&
		strings.Contains(accept, "encoding=delimited")
}

// collectWithContext runs the registry's gather-and-encode step on a
// goroutine so a scrape-timeout context can abandon it without blocking the
// handler forever (§4.6 request timeout handling), encoding as delimited
// protobuf or text depending on asProto.
func collectWithContext(ctx context.Context, reg *Registry, asProto bool) ([]byte, string, error) {
	type result struct {
		body []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		families, err := reg.Gather()
		if err != nil {
			ch <- result{nil, fmt.Errorf("%w: %v", ErrScrapeFailure, err)}
			return
		}
		var buf bytes.Buffer
		if asProto {
			err = EncodeDelimited(&buf, families)
		} else {
			err = EncodeText(&buf, families)
		}
		if err != nil {
			ch <- result{nil, fmt.Errorf("%w: %v", ErrScrapeFailure, err)}
			return
		}
		ch <- result{buf.Bytes(), nil}
	}()

	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case res := <-ch:
		contentType := "text/plain; version=0.0.4; charset=utf-8"
		if asProto {
			contentType = ProtoContentType
		}
		return res.body, contentType, res.err
	}
}

// selectScrapeTimeout picks the smaller of the configured timeout and the
// scraper's advertised X-Prometheus-Scrape-Timeout-Seconds header.
func selectScrapeTimeout(r *http.Request, configured time.Duration) time.Duration {
	headerVal := r.Header.Get("X-Prometheus-Scrape-Timeout-Seconds")
	if headerVal == "" {
		return configured
	}
	seconds, err := strconv.ParseFloat(headerVal, 64)
	if err != nil || seconds <= 0 {
		return configured
	}
	headerTimeout := time.Duration(seconds * float64(time.Second))
	if configured <= 0 || headerTimeout < configured {
		return headerTimeout
	}
	return configured
}

