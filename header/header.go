// Package header implements the subfile header codec: parsing and
// serialising the 4096-byte, NUL-padded ASCII "KEY VALUE\n" section at
// the start of every subfile, against the static field registry in
// registry.go.
package header

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/metadata"
)

// Value is a coerced header field value: either an integer or a
// string, per its registered (or inferred, for unknown keys) type.
type Value struct {
	IsInt bool
	Int   int64
	Str   string
}

// IntValue constructs an integer Value.
func IntValue(v int64) Value { return Value{IsInt: true, Int: v} }

// StringValue constructs a string Value.
func StringValue(v string) Value { return Value{Str: v} }

func (v Value) String() string {
	if v.IsInt {
		return strconv.FormatInt(v.Int, 10)
	}

	return v.Str
}

// Header holds the parsed key/value fields of a subfile header.
type Header struct {
	values map[string]Value
}

// New creates an empty Header.
func New() *Header {
	return &Header{values: make(map[string]Value)}
}

// Parse decodes a header section: ASCII text up to the first NUL byte,
// split into lines, each line split on its first space into a key and
// a value, coerced by the key's registered type (unknown keys are
// stored as strings).
func Parse(data []byte) (*Header, error) {
	if len(data) < metadata.HeaderLength {
		return nil, fmt.Errorf("%w: header section must be %d bytes, got %d", errs.ErrInvalidFormat, metadata.HeaderLength, len(data))
	}

	text := data[:metadata.HeaderLength]
	if nul := bytes.IndexByte(text, 0); nul >= 0 {
		text = text[:nul]
	}

	h := New()
	lines := strings.Split(string(text), "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, errs.Locate(fmt.Errorf("%w: malformed header line %q", errs.ErrInvalidFormat, line),
				errs.Location{Name: "line", Index: i})
		}

		if err := h.set(key, strings.TrimSpace(value)); err != nil {
			return nil, errs.Locate(err, errs.Location{Name: "line", Index: i})
		}
	}

	return h, nil
}

// set coerces raw by key's registered type (string if unregistered) and
// stores it.
func (h *Header) set(key, raw string) error {
	typ, _ := typeOf(key)

	switch typ {
	case FieldInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: field %s: cannot parse integer %q: %v", errs.ErrInvalidFormat, key, raw, err)
		}

		h.values[key] = IntValue(n)
	case FieldString:
		h.values[key] = StringValue(raw)
	}

	return nil
}

// Get returns the value stored for key.
func (h *Header) Get(key string) (Value, bool) {
	v, ok := h.values[key]
	return v, ok
}

// GetInt returns key's integer value, failing if the key is absent or
// not an integer field.
func (h *Header) GetInt(key string) (int64, error) {
	v, ok := h.values[key]
	if !ok {
		return 0, fmt.Errorf("%w: header field %s not present", errs.ErrMissingResource, key)
	}

	if !v.IsInt {
		return 0, fmt.Errorf("%w: header field %s is not an integer", errs.ErrInvalidFormat, key)
	}

	return v.Int, nil
}

// GetString returns key's string value, failing if the key is absent.
func (h *Header) GetString(key string) (string, error) {
	v, ok := h.values[key]
	if !ok {
		return "", fmt.Errorf("%w: header field %s not present", errs.ErrMissingResource, key)
	}

	return v.String(), nil
}

// Set stores value under key. If key is not in the field registry and
// force is false, Set fails with ErrInvalidArgument; callers that want
// to add an ad-hoc key must pass force=true, and the key will still
// round-trip (sorted last, per the unknown-key rule) even though it has
// no registered type.
func (h *Header) Set(key string, value Value, force bool) error {
	if _, known := fields[key]; !known && !force {
		return fmt.Errorf("%w: unknown header key %s (use force to set anyway)", errs.ErrInvalidArgument, key)
	}

	h.values[key] = value

	return nil
}

// Unset removes key from the header, if present.
func (h *Header) Unset(key string) {
	delete(h.values, key)
}

// Keys returns every key present, sorted by registered index then
// alphabetically among ties (matching the order Serialise emits them
// in).
func (h *Header) Keys() []string {
	keys := make([]string, 0, len(h.values))
	for k := range h.values {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		ii, ij := indexOf(keys[i]), indexOf(keys[j])
		if ii != ij {
			return ii < ij
		}

		return keys[i] < keys[j]
	})

	return keys
}

// Serialise renders the header as the fixed-size binary section: sorted
// "KEY VALUE\n" lines, NUL-padded to exactly metadata.HeaderLength
// bytes. It fails if the rendered text (before padding) exceeds that
// length.
func (h *Header) Serialise() ([]byte, error) {
	var buf bytes.Buffer

	for _, key := range h.Keys() {
		fmt.Fprintf(&buf, "%s %s\n", key, h.values[key].String())
	}

	if buf.Len() > metadata.HeaderLength {
		return nil, fmt.Errorf("%w: serialised header is %d bytes, exceeds %d", errs.ErrInvalidFormat, buf.Len(), metadata.HeaderLength)
	}

	out := make([]byte, metadata.HeaderLength)
	copy(out, buf.Bytes())

	return out, nil
}

// PrintFormat selects the Print output layout.
type PrintFormat uint8

const (
	PrintPretty PrintFormat = iota
	PrintCSV
	PrintBin
)

// Print renders the header in the given format.
func (h *Header) Print(format PrintFormat) (string, error) {
	switch format {
	case PrintPretty:
		return h.pretty(), nil
	case PrintCSV:
		return h.csv(), nil
	case PrintBin:
		b, err := h.Serialise()
		if err != nil {
			return "", err
		}

		return string(b), nil
	default:
		return "", fmt.Errorf("%w: unknown print format %v", errs.ErrInvalidArgument, format)
	}
}

// pretty prints four fields per line (two key/value pairs), with keys
// padded to 19 characters and values padded to 20.
func (h *Header) pretty() string {
	keys := h.Keys()

	var buf strings.Builder
	for i := 0; i < len(keys); i += 2 {
		k1 := keys[i]
		fmt.Fprintf(&buf, "%-19s%-20s", k1, h.values[k1].String())

		if i+1 < len(keys) {
			k2 := keys[i+1]
			fmt.Fprintf(&buf, "%-19s%-20s", k2, h.values[k2].String())
		}

		buf.WriteByte('\n')
	}

	return buf.String()
}

func (h *Header) csv() string {
	keys := h.Keys()

	var buf strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s,%s\n", k, h.values[k].String())
	}

	return buf.String()
}
