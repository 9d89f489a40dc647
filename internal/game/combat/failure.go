package combat

import (
	"errors"
	"fmt"
)

// FailureCode classifies a rejected command.
type FailureCode string

const (
	CodeNoTarget        FailureCode = "no_target"
	CodeSelfTarget      FailureCode = "self_target"
	CodeDead            FailureCode = "dead"
	CodeTargetDead      FailureCode = "target_dead"
	CodeNotHere         FailureCode = "not_here"
	CodeRoundtime       FailureCode = "roundtime"
	CodeNoWound         FailureCode = "no_wound"
	CodeNotBleeding     FailureCode = "not_bleeding"
	CodeAlreadyBandaged FailureCode = "already_bandaged"
	CodeBeyondSkill     FailureCode = "beyond_skill"
	CodeInvalidStance   FailureCode = "invalid_stance"
	CodeNotInCombat     FailureCode = "not_in_combat"
	CodeInvalidLocation FailureCode = "invalid_location"
)

// Failure is a recoverable, user-facing rejection. No state changes when an
// operation returns a Failure.
type Failure struct {
	Code    FailureCode
	Message string
}

func (f *Failure) Error() string { return f.Message }

// NewFailure builds a Failure with a formatted message.
func NewFailure(code FailureCode, format string, args ...any) *Failure {
	return fail(code, format, args...)
}

func fail(code FailureCode, format string, args ...any) *Failure {
	return &Failure{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsFailure unwraps err to a *Failure.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsFailure reports whether err is a Failure with code.
func IsFailure(err error, code FailureCode) bool {
	f, ok := AsFailure(err)
	return ok && f.Code == code
}
