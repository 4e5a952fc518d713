package horntail

import "fmt"

// Kind identifies which branch of the error taxonomy an Error belongs to,
// independent of its message text.
type Kind int

const (
	// KindIO reports any failure on the underlying byte source.
	KindIO Kind = iota
	// KindBrokenFile reports a structural invariant violation: bad magic,
	// header sizes, truncated reads, short inflate, a table hash mismatch.
	KindBrokenFile
	// KindInvalidVersion reports a WZ version check failure or a pack
	// version byte other than 2.
	KindInvalidVersion
	// KindInvalidCharacter reports a Windows-1252 or UTF-16 decode failure.
	KindInvalidCharacter
	// KindInvalidCipher reports a cipher in an unusable state.
	KindInvalidCipher
	// KindInvalidDataType reports a typed accessor invoked against an
	// incompatible node.
	KindInvalidDataType
	// KindInvalidArgument reports caller misuse, such as Snow2.Crypt on a
	// buffer whose length isn't a multiple of 4.
	KindInvalidArgument
	// KindUnexpectedData reports a parsed value outside the known
	// enumeration for its position.
	KindUnexpectedData
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindBrokenFile:
		return "broken file"
	case KindInvalidVersion:
		return "invalid version"
	case KindInvalidCharacter:
		return "invalid character"
	case KindInvalidCipher:
		return "invalid cipher"
	case KindInvalidDataType:
		return "invalid data type"
	case KindInvalidArgument:
		return "invalid argument"
	case KindUnexpectedData:
		return "unexpected data"
	default:
		return "unknown"
	}
}

// Error is the error type returned throughout this package. Callers should
// use errors.Is against the package-level sentinels below, or inspect Kind
// directly, rather than matching on message text.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("horntail: %s", e.Kind)
	}
	return fmt.Sprintf("horntail: %s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel for the same Kind, so that
// errors.Is(err, horntail.ErrBrokenFile) works regardless of Detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(k Kind, detail string) *Error {
	return &Error{Kind: k, Detail: detail}
}

func wrapErr(k Kind, detail string, err error) *Error {
	return &Error{Kind: k, Detail: detail, Err: err}
}

// Sentinels for errors.Is comparisons against a bare Kind, with no detail.
var (
	ErrIO               = &Error{Kind: KindIO}
	ErrBrokenFile       = &Error{Kind: KindBrokenFile}
	ErrInvalidVersion   = &Error{Kind: KindInvalidVersion}
	ErrInvalidCharacter = &Error{Kind: KindInvalidCharacter}
	ErrInvalidCipher    = &Error{Kind: KindInvalidCipher}
	ErrInvalidDataType  = &Error{Kind: KindInvalidDataType}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrUnexpectedData   = &Error{Kind: KindUnexpectedData}
)
