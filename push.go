package metric

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var zeroLogger zerolog.Logger

// PusherOpts configures a Pusher (§4.9 push mode / Pushgateway client).
type PusherOpts struct {
	// Endpoint is the Pushgateway base URL, e.g. "http://localhost:9091".
	Endpoint string
	// Job is the required grouping key job label.
	Job string
	// Instance is an optional grouping key instance label.
	Instance string
	// GroupingLabels are additional grouping key label/value pairs,
	// appended to the push URL path as /<name>/<value> segments in
	// sorted-by-name order for a deterministic URL.
	GroupingLabels map[string]string
	// Gatherer supplies the families pushed on each tick.
	Gatherer Gatherer
	// Interval is the time between pushes. Defaults to one second.
	Interval time.Duration
	// Client is the HTTP client used for pushes. Defaults to http.DefaultClient.
	Client *http.Client
	// OnError is invoked synchronously from the push loop whenever a push
	// fails, after the failure has already been logged.
	OnError func(error)
	// Logger overrides the package default logger.
	Logger zerolog.Logger
}

// Pusher periodically gathers and pushes metrics to a Pushgateway-style
// endpoint in a background goroutine (C·push, §4.9).
type Pusher struct {
	opts   PusherOpts
	url    string
	client *http.Client
	logger zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPusher builds a Pusher from opts. It does not start the push loop;
// call Start for that.
func NewPusher(opts PusherOpts) (*Pusher, error) {
	if opts.Gatherer == nil {
		return nil, fmt.Errorf("%w: pusher requires a gatherer", ErrInvalidArgument)
	}
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("%w: pusher requires an endpoint", ErrInvalidArgument)
	}
	if opts.Job == "" {
		return nil, fmt.Errorf("%w: pusher requires a job name", ErrInvalidArgument)
	}
	pushURL, err := buildPushURL(opts.Endpoint, opts.Job, opts.Instance, opts.GroupingLabels)
	if err != nil {
		return nil, err
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	opts.Interval = interval

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	base := defaultLogger
	if !reflect.DeepEqual(opts.Logger, zeroLogger) {
		base = opts.Logger
	}

	return &Pusher{
		opts:   opts,
		url:    pushURL,
		client: client,
		logger: base.With().Str("subcomponent", "pusher").Str("job", opts.Job).Logger(),
		done:   make(chan struct{}),
	}, nil
}

func buildPushURL(endpoint, job, instance string, grouping map[string]string) (string, error) {
	base, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil {
		return "", fmt.Errorf("%w: invalid endpoint url: %v", ErrInvalidArgument, err)
	}
	segments := []string{base.Path, "job", url.PathEscape(job)}
	if instance != "" {
		segments = append(segments, "instance", url.PathEscape(instance))
	}
	names := make([]string, 0, len(grouping))
	for k := range grouping {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		v := grouping[k]
		if k == "" || v == "" {
			return "", fmt.Errorf("%w: grouping label key and value must both be non-empty, got %q=%q", ErrInvalidArgument, k, v)
		}
		segments = append(segments, url.PathEscape(k), url.PathEscape(v))
	}
	base.Path = strings.Join(segments, "/")
	return base.String(), nil
}

// Start begins the periodic push loop in a background goroutine.
func (p *Pusher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info().Dur("interval", p.opts.Interval).Str("url", p.url).Msg("starting metrics pusher")
	go p.loop(ctx)
}

// Stop cancels the push loop, performs one final push to flush the last
// state, and waits for the loop goroutine to exit.
func (p *Pusher) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *Pusher) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.pushOnce(context.Background())
			p.logger.Info().Msg("metrics pusher stopped")
			return
		case <-ticker.C:
			p.pushOnce(ctx)
		}
	}
}

func (p *Pusher) pushOnce(ctx context.Context) {
	families, err := p.opts.Gatherer.Gather()
	if err != nil {
		p.reportError(fmt.Errorf("gather: %w", err))
		return
	}

	var buf bytes.Buffer
	if err := EncodeText(&buf, families); err != nil {
		p.reportError(fmt.Errorf("encode: %w", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, &buf)
	if err != nil {
		p.reportError(fmt.Errorf("build request: %w", err))
		return
	}
	req.Header.Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	resp, err := p.client.Do(req)
	if err != nil {
		p.reportError(fmt.Errorf("%w: %v", ErrScrapeFailure, err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		p.reportError(fmt.Errorf("%w: push returned status %d", ErrScrapeFailure, resp.StatusCode))
		return
	}
}

func (p *Pusher) reportError(err error) {
	p.logger.Error().Err(err).Msg("metrics push failed")
	if p.opts.OnError != nil {
		p.opts.OnError(err)
	}
}

// PushOpts configures a single one-shot push (used by tests and by
// callers that do not want the periodic Pusher).
type PushOpts struct {
	URL      string
	Job      string
	Instance string
	Gatherer Gatherer
	Client   *http.Client
	Timeout  time.Duration
}

// Push gathers metrics once and pushes them to a remote HTTP endpoint.
func Push(opts PushOpts) error {
	pushURL, err := buildPushURL(opts.URL, opts.Job, opts.Instance, nil)
	if err != nil {
		return err
	}
	if opts.Gatherer == nil {
		return fmt.Errorf("%w: missing gatherer", ErrInvalidArgument)
	}

	families, err := opts.Gatherer.Gather()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := EncodeText(&buf, families); err != nil {
		return err
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pushURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: unexpected status %d", ErrScrapeFailure, resp.StatusCode)
	}
	return nil
}
