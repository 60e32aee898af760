package bsoncodec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrSchemaMismatch indicates that the record or the schema walk reached a state the
	// schema cannot describe: unsupported field type, discriminant or count out of bounds,
	// bad offset pointer.
	ErrSchemaMismatch = errors.New("bsoncodec: schema mismatch")

	// ErrTypeMismatch indicates that a document value carries a type tag the target field
	// cannot accept.
	ErrTypeMismatch = errors.New("bsoncodec: type mismatch")

	// ErrOutOfRange indicates that a decoded integer does not fit the target field.
	ErrOutOfRange = errors.New("bsoncodec: value out of range")

	// ErrMissingMetadata indicates that the envelope keys (message type, sequence) are
	// missing, duplicated or malformed.
	ErrMissingMetadata = errors.New("bsoncodec: missing or invalid metadata")

	// ErrMalformed indicates truncated or corrupt document bytes.
	ErrMalformed = errors.New("bsoncodec: malformed document")

	// ErrNoScheme indicates that a Codec was created without a scheme.
	ErrNoScheme = errors.New("bsoncodec: codec needs scheme")

	// ErrUnknownMessage indicates that a message id or name is not present in the scheme.
	ErrUnknownMessage = errors.New("bsoncodec: message not found")

	// ErrUnknownBackend indicates an unsupported document builder backend name.
	ErrUnknownBackend = errors.New("bsoncodec: unknown encoder backend")

	// ErrInvalidMode indicates an unsupported envelope compose mode.
	ErrInvalidMode = errors.New("bsoncodec: invalid compose mode")

	// ErrNilIO indicates that NewReader/NewWriter was called with a nil io.Reader/io.Writer.
	ErrNilIO = errors.New("bsoncodec: NewReader/NewWriter called with a nil io.Reader/io.Writer")

	// ErrTruncatedData indicates that a wire record is shorter than its message size.
	ErrTruncatedData = errors.New("bsoncodec: truncated data")
)

// Phase indicates which direction of the codec failed.
type Phase string

const (
	PhaseEncode Phase = "encode" // wire record to document
	PhaseDecode Phase = "decode" // document to wire record
)

// Kind categorizes a codec failure.
type Kind string

const (
	KindSchemaMismatch  Kind = "schema_mismatch"
	KindTypeMismatch    Kind = "type_mismatch"
	KindOutOfRange      Kind = "out_of_range"
	KindMissingMetadata Kind = "missing_metadata"
	KindMalformed       Kind = "malformed_document"
)

func (k Kind) sentinel() error {
	switch k {
	case KindSchemaMismatch:
		return ErrSchemaMismatch
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindOutOfRange:
		return ErrOutOfRange
	case KindMissingMetadata:
		return ErrMissingMetadata
	case KindMalformed:
		return ErrMalformed
	}
	return nil
}

// Frame is one entry of the error stack: either a field or an array index.
type Frame struct {
	Field *Field // nil for index frames
	Index int
}

// IsIndex reports whether the frame refers to an array element.
func (f Frame) IsIndex() bool { return f.Field == nil }

// Error is the failure reported by the encoder and the decoder.
// Stack is recorded while unwinding, so the innermost frame comes first.
type Error struct {
	Phase  Phase
	Kind   Kind
	Detail string
	Stack  []Frame
}

// Path renders the frame stack as a dotted/bracketed path, outermost first.
func (e *Error) Path() string {
	var b strings.Builder
	for i := len(e.Stack) - 1; i >= 0; i-- {
		f := e.Stack[i]
		if f.IsIndex() {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(f.Index))
			b.WriteByte(']')
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(f.Field.Name)
	}
	return b.String()
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))
	if path := e.Path(); path != "" {
		b.WriteString(" at ")
		b.WriteString(path)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Unwrap exposes the kind sentinel so errors.Is(err, ErrOutOfRange) works.
func (e *Error) Unwrap() error { return e.Kind.sentinel() }

// Is reports whether target is an *Error of the same phase and kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

func failf(phase Phase, kind Kind, format string, args ...any) *Error {
	return &Error{Phase: phase, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// failField records f on the error stack and returns err.
func failField(err error, f *Field) error {
	if e, ok := err.(*Error); ok {
		e.Stack = append(e.Stack, Frame{Field: f})
	}
	return err
}

// failIndex records an array index on the error stack and returns err.
func failIndex(err error, idx int) error {
	if e, ok := err.(*Error); ok {
		e.Stack = append(e.Stack, Frame{Index: idx})
	}
	return err
}
