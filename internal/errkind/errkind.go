// Package errkind tags decode/emit failures with one of the four error
// kinds shared by every codec in this module (bit reader, Huffman table,
// DEFLATE inflater, PNG decoder, RIFF engine, BMP reader): InvalidSignature,
// UnsupportedFeature, Corrupted, and IO.
//
// Wrapping is built on github.com/pkg/errors so a failure keeps its stack
// trace from the point it was first tagged, while still satisfying the
// standard errors.Is/errors.As contract against the Kind sentinels below.
package errkind

import (
	"github.com/pkg/errors"
)

// Kind identifies which of the four failure modes a decode error belongs to.
type Kind int

const (
	// InvalidSignature: a magic number/signature did not match (BMP "BM",
	// PNG's 8-byte signature when validated).
	InvalidSignature Kind = iota
	// UnsupportedFeature: the input is well-formed but outside the subset
	// this core implements (zlib method != 8, PNG color type/bit depth).
	UnsupportedFeature
	// Corrupted: the input violates a structural invariant (Huffman miss,
	// bit buffer underrun, bad filter type, back-reference past the
	// output so far, RIFF child overrunning its parent, DEFLATE BTYPE 11).
	Corrupted
	// IO: the underlying read or write failed.
	IO
)

func (k Kind) String() string {
	switch k {
	case InvalidSignature:
		return "invalid signature"
	case UnsupportedFeature:
		return "unsupported feature"
	case Corrupted:
		return "corrupted"
	case IO:
		return "io"
	default:
		return "unknown"
	}
}

// kindError pairs a Kind with the underlying cause so that errors.Is can
// match against a specific Kind sentinel (see Is). Error() prints only the
// kind and the cause's message; the pkg/errors stack trace captured at
// creation stays on the cause (errors.Unwrap), where %+v prints it.
type kindError struct {
	kind  Kind
	cause error
}

func (e *kindError) Error() string { return e.kind.String() + ": " + e.cause.Error() }
func (e *kindError) Unwrap() error { return e.cause }

// sentinel lets errors.Is(err, errkind.Sentinel(Corrupted)) match any error
// produced by Wrap/Wrapf/New with that Kind, without callers needing to
// know the concrete cause.
type sentinel Kind

func (s sentinel) Error() string { return Kind(s).String() }

// Sentinel returns the comparable marker for a Kind, suitable for
// errors.Is(err, errkind.Sentinel(k)).
func Sentinel(k Kind) error { return sentinel(k) }

func (e *kindError) Is(target error) bool {
	s, ok := target.(sentinel)
	return ok && Kind(s) == e.kind
}

// New creates a new Kind-tagged error with a stack trace, analogous to
// errors.New but carrying a Kind.
func New(k Kind, msg string) error {
	return &kindError{kind: k, cause: errors.New(msg)}
}

// Newf is New with fmt-style formatting.
func Newf(k Kind, format string, args ...interface{}) error {
	return &kindError{kind: k, cause: errors.Errorf(format, args...)}
}

// Wrap tags err with a Kind, preserving err as the Unwrap() cause and
// attaching a new stack trace via pkg/errors.
func Wrap(k Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: k, cause: errors.Wrap(err, msg)}
}

// Wrapf is Wrap with fmt-style formatting.
func Wrapf(k Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: k, cause: errors.Wrapf(err, format, args...)}
}

// Of reports the Kind of err if it (or something it wraps) was produced by
// this package, and whether a Kind was found at all.
func Of(err error) (Kind, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind, true
	}
	return 0, false
}
