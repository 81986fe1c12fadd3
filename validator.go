package metric

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	metricNameRE = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)
	labelNameRE  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// validateMetricName checks a family name against the Prometheus text
// format's identifier grammar (I1).
func validateMetricName(name string) error {
	if !metricNameRE.MatchString(name) {
		return fmt.Errorf("%w: invalid metric name %q", ErrInvalidArgument, name)
	}
	return nil
}

// validateLabelName checks one label name: it must match the identifier
// grammar, must not start with "__" (reserved for internal use), and must
// not equal the value-dependent reserved name for this metric kind ("le"
// for histograms, "quantile" for summaries).
func validateLabelName(name string, reserved string) error {
	if !labelNameRE.MatchString(name) {
		return fmt.Errorf("%w: invalid label name %q", ErrInvalidArgument, name)
	}
	if strings.HasPrefix(name, "__") {
		return fmt.Errorf("%w: label name %q uses reserved prefix \"__\"", ErrInvalidArgument, name)
	}
	if reserved != "" && name == reserved {
		return fmt.Errorf("%w: label name %q is reserved for this metric kind", ErrInvalidArgument, name)
	}
	return nil
}

// reservedLabelFor returns the label name a metric kind reserves for its
// own use in serialization ("le" for histogram buckets, "quantile" for
// summary objectives), or "" if the kind reserves nothing.
func reservedLabelFor(kind MetricType) string {
	switch kind {
	case MetricTypeHistogram:
		return "le"
	case MetricTypeSummary:
		return "quantile"
	default:
		return ""
	}
}

// validateLabelSchema validates an ordered list of label names for a family
// of the given kind: each name must be valid, none may repeat, and none may
// collide with the kind's reserved label.
func validateLabelSchema(names []string, kind MetricType) error {
	reserved := reservedLabelFor(kind)
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if err := validateLabelName(n, reserved); err != nil {
			return err
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: duplicate label name %q", ErrInvalidArgument, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
