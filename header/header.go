// Package header implements the subfile text header: a fixed 4096-byte,
// NUL-padded ASCII section holding one "KEY VALUE\n" pair per line.
//
// A fixed registry (HEADER_FIELDS, see registry.go) maps each known key to a
// value type and a preferred serialisation order; unknown keys round-trip
// as strings, sorted last.
package header

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/MWATelescope/subtool/errs"
)

// Length is the fixed on-disk size of the header section.
const Length = 4096

// Header is a parsed, mutable set of header fields. Values are stored as
// int64 or string depending on their registered (or inferred) type.
type Header struct {
	values map[string]any
}

// New returns an empty Header.
func New() *Header {
	return &Header{values: make(map[string]any)}
}

// Parse decodes a 4096-byte header section into a Header.
//
// The buffer is decoded as ASCII up to the first NUL byte, split into lines
// on '\n', and each line split on the first space into a key and a value;
// the value is coerced to the key's registered type (or stored as a string
// if the key is unregistered).
func Parse(buf []byte) (*Header, error) {
	if len(buf) != Length {
		return nil, errs.New(errs.InvalidFormat, "header must be exactly %d bytes, got %d", Length, len(buf))
	}

	if nul := bytes.IndexByte(buf, 0); nul >= 0 {
		buf = buf[:nul]
	}

	h := New()
	text := string(buf)
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, rawVal, ok := strings.Cut(line, " ")
		if !ok {
			return nil, errs.New(errs.InvalidFormat, "malformed header line %d: %q", i, line).At(i)
		}

		rawVal = strings.TrimSpace(rawVal)
		if err := h.Set(key, rawVal, true); err != nil {
			var e *errs.Error
			if errors.As(err, &e) {
				return nil, e.At(i)
			}

			return nil, err
		}
	}

	return h, nil
}

// Set stores value under key, coercing it to the key's registered type.
// value may be an int64, int, string, or a string that parses as one of
// those. If key is not registered and force is false, Set fails.
func (h *Header) Set(key string, value any, force bool) error {
	fieldType, known := registeredType(key)
	if !known {
		if !force {
			return errs.New(errs.InvalidArgument, "unknown header key %q (pass force to set it anyway)", key)
		}

		fieldType = inferType(value)
	}

	coerced, err := coerce(key, value, fieldType)
	if err != nil {
		return err
	}

	h.values[key] = coerced

	return nil
}

func inferType(value any) FieldType {
	switch v := value.(type) {
	case int, int64:
		return TypeInt
	case string:
		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			return TypeInt
		}

		return TypeStr
	default:
		return TypeStr
	}
}

func coerce(key string, value any, fieldType FieldType) (any, error) {
	switch fieldType {
	case TypeInt:
		switch v := value.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, errs.New(errs.InvalidFormat, "field %q: cannot parse %q as integer", key, v)
			}

			return n, nil
		default:
			return nil, errs.New(errs.InvalidFormat, "field %q: unsupported value type %T", key, value)
		}
	case TypeStr:
		switch v := value.(type) {
		case string:
			return v, nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case int:
			return strconv.Itoa(v), nil
		default:
			return fmt.Sprint(v), nil
		}
	default:
		return nil, errs.New(errs.InvalidFormat, "field %q: unknown field type", key)
	}
}

// Unset removes key from the header, if present.
func (h *Header) Unset(key string) {
	delete(h.values, key)
}

// GetInt returns key's value as an int64. ok is false if key is absent or
// holds a string value.
func (h *Header) GetInt(key string) (int64, bool) {
	v, present := h.values[key]
	if !present {
		return 0, false
	}

	n, ok := v.(int64)

	return n, ok
}

// GetString returns key's value as a string. ok is false if key is absent.
// Integer fields are formatted as decimal strings.
func (h *Header) GetString(key string) (string, bool) {
	v, present := h.values[key]
	if !present {
		return "", false
	}

	switch t := v.(type) {
	case string:
		return t, true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return fmt.Sprint(t), true
	}
}

// Keys returns every key currently set, in serialisation order (registered
// index, then alphabetically among ties).
func (h *Header) Keys() []string {
	keys := make([]string, 0, len(h.values))
	for k := range h.values {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		ii, ij := sortIndex(keys[i]), sortIndex(keys[j])
		if ii != ij {
			return ii < ij
		}

		return keys[i] < keys[j]
	})

	return keys
}

// Bytes serialises the header to a NUL-padded Length-byte buffer.
func (h *Header) Bytes() ([]byte, error) {
	var b strings.Builder

	for _, key := range h.Keys() {
		val, _ := h.GetString(key)
		fmt.Fprintf(&b, "%s %s\n", key, val)
	}

	if b.Len() > Length {
		return nil, errs.New(errs.InvalidFormat, "serialised header (%d bytes) exceeds %d-byte section", b.Len(), Length)
	}

	out := make([]byte, Length)
	copy(out, b.String())

	return out, nil
}
