package metric

import (
	"fmt"
	"strconv"
	"strings"
)

// labelTuple is an immutable ordered name/value vector identifying one
// child within a family. Equality and the map key are computed over
// values only: the family guarantees every tuple it builds shares the
// same name arity, so values alone disambiguate children (C2).
type labelTuple struct {
	names  []string
	values []string
	key    string // precomputed map key, "\x00"-joined values
}

// newLabelTuple builds a tuple from parallel name/value slices. The
// caller's slices are copied so later mutation of the caller's slices
// cannot corrupt a published tuple.
func newLabelTuple(names, values []string) (labelTuple, error) {
	if len(names) != len(values) {
		return labelTuple{}, fmt.Errorf("%w: %d label names but %d values", ErrInvalidArgument, len(names), len(values))
	}
	n := make([]string, len(names))
	copy(n, names)
	v := make([]string, len(values))
	copy(v, values)
	return labelTuple{names: n, values: v, key: strings.Join(v, "\x00")}, nil
}

// append returns a new tuple with one additional (name, value) pair.
func (t labelTuple) append(name, value string) labelTuple {
	return labelTuple{
		names:  append(append([]string(nil), t.names...), name),
		values: append(append([]string(nil), t.values...), value),
		key:    t.key + "\x00" + value,
	}
}

// appendTuple returns a new tuple with the given names/values appended.
func (t labelTuple) appendTuple(names, values []string) labelTuple {
	out := t
	for i := range names {
		out = out.append(names[i], values[i])
	}
	return out
}

// pairs returns the flattened label set in tuple order, ready for
// serialization (C3 precomputes the identifier bytes from exactly this).
func (t labelTuple) pairs() []LabelPair {
	out := make([]LabelPair, len(t.names))
	for i := range t.names {
		out[i] = LabelPair{Name: t.names[i], Value: t.values[i]}
	}
	return out
}

// serialize renders the tuple the way §4.7 renders a label set:
// Name1="Val1",Name2="Val2",... in the tuple's own order (no sorting).
func (t labelTuple) serialize() string {
	var b strings.Builder
	for i := range t.names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.names[i])
		b.WriteString(`="`)
		b.WriteString(escapeLabelValue(t.values[i]))
		b.WriteByte('"')
	}
	return b.String()
}

// escapeLabelValue escapes a label value per §4.7: backslash, quote and
// newline are escaped; bare CR and CRLF are normalized to \n.
func escapeLabelValue(s string) string {
	if !strings.ContainsAny(s, "\\\"\n\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// buildIdentifier precomputes the wire identifier bytes for a child:
// name[_suffix]{k1="v1",k2="v2",...}, labels serialized in the order
// given (the tuple's own order, never sorted). An empty label set omits
// the braces entirely. The brace contents are built by reusing
// labelTuple.serialize, the same renderer a child's own label tuple uses,
// so the two never drift out of sync.
func buildIdentifier(name, suffix string, labels []LabelPair) []byte {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString(suffix)
	if len(labels) > 0 {
		names := make([]string, len(labels))
		values := make([]string, len(labels))
		for i, lp := range labels {
			names[i] = lp.Name
			values[i] = lp.Value
		}
		tuple, _ := newLabelTuple(names, values) // arity matches by construction
		b.WriteByte('{')
		b.WriteString(tuple.serialize())
		b.WriteByte('}')
	}
	return []byte(b.String())
}

// formatLabelValue renders a float64 the way a "le" or "quantile" label
// value is rendered: +Inf/-Inf/NaN or a locale-independent decimal.
func formatLabelValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
