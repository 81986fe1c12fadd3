package metric

import "errors"

// Sentinel errors returned by the registry, factory and pusher. Wrap with
// fmt.Errorf("...: %w", ErrX) to attach detail while keeping errors.Is usable.
var (
	// ErrInvalidArgument is returned for malformed names, label schemas,
	// bucket/objective parameters and other caller mistakes that are
	// detected synchronously and never mutate state.
	ErrInvalidArgument = errors.New("metric: invalid argument")

	// ErrSchemaConflict is returned when a name is re-registered with a
	// different kind or label schema than its first registration.
	ErrSchemaConflict = errors.New("metric: schema conflict")

	// ErrStateViolation is returned for operations that are only valid
	// before the registry has started collecting, such as setting static
	// labels after metrics exist.
	ErrStateViolation = errors.New("metric: state violation")

	// ErrScrapeFailure wraps errors from gathering or encoding a scrape,
	// and the pusher's failed POSTs (transport error or non-2xx status).
	// Before-collect callbacks have no error return and cannot raise it.
	// The HTTP handler answers 503 only for an expired scrape timeout or a
	// full in-flight limit; any other collection error, this one
	// included, is answered with 500.
	ErrScrapeFailure = errors.New("metric: scrape failure")
)
