// Package detecterr defines the error taxonomy shared by every layer of
// the detector (motion, camera, raygen, carve, cluster, track). It has
// no dependencies on the rest of the detector so every layer can import
// it without creating a cycle.
package detecterr

import "fmt"

// Kind classifies a detector error. Callers should compare kinds with
// errors.Is against the sentinel-style helpers below, not string matching.
type Kind string

const (
	// InvalidInput covers mismatched image dimensions/stride or an
	// unsupported channel count.
	InvalidInput Kind = "invalid_input"
	// InvalidCamera covers a non-invertible view-projection or
	// non-finite/degenerate camera attributes.
	InvalidCamera Kind = "invalid_camera"
	// InvalidParameters covers out-of-range carving, clustering or
	// tracking configuration.
	InvalidParameters Kind = "invalid_parameters"
	// NumericOverflow covers a non-finite intermediate value that
	// escaped local recovery. A caller-supplied ray with non-finite
	// components is reported by carve as InvalidParameters instead.
	NumericOverflow Kind = "numeric_overflow"
)

// Error is the concrete error type returned across package boundaries.
// Op names the failing operation (e.g. "raygen.Generate") so messages
// stay greppable without string-matching the kind.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so callers
// can write errors.Is(err, detecterr.New(detecterr.InvalidCamera, "", "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an *Error with no wrapped cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap creates an *Error around an existing error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: err.Error(), Err: err}
}

// HasKind reports whether err (or something it wraps) is a *Error of kind.
func HasKind(err error, kind Kind) bool {
	var de *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			de = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return de != nil && de.Kind == kind
}
