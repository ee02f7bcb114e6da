// Package errs provides a uniform success/failure carrier used across subtool's
// core packages.
//
// Fallible core operations return a (value, error) pair whose error is an
// *Error, instead of the ad-hoc "sometimes a struct, sometimes a value"
// shapes that a hand-ported reference implementation would have. Result[T]
// bundles such an outcome into a single value; no core package returns one.
// Combinators such as At and All let compound operations (row-by-row
// CSV parsing, per-source transforms) prepend location breadcrumbs as a
// failure propagates outward, so the final message points at the first
// offending element.
package errs

import "fmt"

// Kind classifies why an operation failed. Kinds are stable and safe to
// switch on; Reason is the human-readable detail.
type Kind uint8

const (
	// IoFailure covers short reads, open failures, and write failures.
	IoFailure Kind = iota + 1
	// InvalidFormat covers header parse failures, malformed CSV, and
	// binary delay-table structure that cannot be inferred.
	InvalidFormat
	// VersionMismatch covers a caller-specified version/count disagreeing
	// with the detected value.
	VersionMismatch
	// OutOfRange covers a block index, source index, or argument outside
	// its declared bounds.
	OutOfRange
	// MissingResource covers a referenced source id or section that isn't
	// present.
	MissingResource
	// InvalidArgument covers a CLI parse error or bad option value,
	// detected before any I/O happens.
	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case IoFailure:
		return "IoFailure"
	case InvalidFormat:
		return "InvalidFormat"
	case VersionMismatch:
		return "VersionMismatch"
	case OutOfRange:
		return "OutOfRange"
	case MissingResource:
		return "MissingResource"
	case InvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Error is the failure payload carried by a Result. It implements the
// standard error interface and Unwrap, so it composes with errors.Is/As.
type Error struct {
	Kind   Kind
	Reason string
	// Path accumulates location breadcrumbs (row index, field name, block
	// index, ...) from innermost to outermost as the error propagates up
	// through compound structures.
	Path []any
	Err  error // optional wrapped cause
}

func (e *Error) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}

	return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Reason, formatPath(e.Path))
}

func (e *Error) Unwrap() error { return e.Err }

func formatPath(path []any) string {
	s := ""
	for i, p := range path {
		if i > 0 {
			s += "."
		}
		s += fmt.Sprint(p)
	}

	return s
}

// New creates an *Error with the given kind and formatted reason.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error that wraps an existing error under the given kind.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...), Err: cause}
}

// At returns a copy of e with loc prepended to its breadcrumb path.
func (e *Error) At(loc any) *Error {
	next := &Error{Kind: e.Kind, Reason: e.Reason, Err: e.Err}
	next.Path = append([]any{loc}, e.Path...)

	return next
}

// Result is a discriminated outcome carrying either a value of type T or a
// failure. The zero value is not meaningful; use Ok or Fail.
type Result[T any] struct {
	value T
	err   *Error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{value: v} }

// Fail wraps a failure.
func Fail[T any](err *Error) Result[T] { return Result[T]{err: err} }

// Failf builds a failure from a kind and formatted reason.
func Failf[T any](kind Kind, format string, args ...any) Result[T] {
	return Result[T]{err: New(kind, format, args...)}
}

// IsOk reports whether r holds a success value.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Err returns the failure, or nil if r is a success.
func (r Result[T]) Err() error {
	if r.err == nil {
		return nil
	}

	return r.err
}

// Value returns the success value and a nil error, or the zero value and the
// failure as a standard error. This is the usual way to consume a Result at
// a Go call site: `v, err := someResult.Value()`.
func (r Result[T]) Value() (T, error) {
	if r.err != nil {
		return r.value, r.err
	}

	return r.value, nil
}

// Must returns the success value or panics. Intended for tests and
// initialization code where failure indicates a programming error.
func (r Result[T]) Must() T {
	if r.err != nil {
		panic(r.err)
	}

	return r.value
}

// At prepends a location breadcrumb to a failing Result; it is a no-op on a
// success.
func (r Result[T]) At(loc any) Result[T] {
	if r.err == nil {
		return r
	}

	return Result[T]{err: r.err.At(loc)}
}

// All collects a slice of Results into a single Result of the slice of
// values, short-circuiting on (and annotating with the index of) the first
// failure.
func All[T any](results []Result[T]) Result[[]T] {
	values := make([]T, len(results))
	for i, r := range results {
		if r.err != nil {
			return Fail[[]T](r.err.At(i))
		}

		values[i] = r.value
	}

	return Ok(values)
}
