package rules

import "fmt"

// ErrorKind classifies rule violations so transports can map them to distinct
// client responses (configuration errors block game start; the rest are
// recoverable and leave the snapshot untouched).
type ErrorKind string

const (
	// KindConfig: invalid role/player-count combination. Fatal for game start.
	KindConfig ErrorKind = "config"
	// KindPhase: action attempted outside its valid phase.
	KindPhase ErrorKind = "phase"
	// KindAuthorization: actor lacks the right to perform the action
	// (non-leader proposing, non-assassin attempting the kill).
	KindAuthorization ErrorKind = "authorization"
	// KindCapability: actor's role forbids the action (good-aligned failure vote).
	KindCapability ErrorKind = "capability"
	// KindValidation: malformed user input (unknown player, wrong team size).
	KindValidation ErrorKind = "validation"
	// KindInternal: programming error (out-of-range ruleset lookup, corrupt state).
	KindInternal ErrorKind = "internal"
)

// Error is a classified rule violation.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Errorf builds a classified error.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the ErrorKind of err if it is a rules error, or KindInternal.
func KindOf(err error) ErrorKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindInternal
}
