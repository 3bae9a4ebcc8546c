package chat

import "fmt"

// FailKind classifies a request failure for callers. BadRequest and
// UnsafeSQL are expected, user-correctable outcomes; the rest are server
// faults.
type FailKind string

const (
	FailBadRequest  FailKind = "bad_request"
	FailUnsafeSQL   FailKind = "unsafe_sql"
	FailTranslation FailKind = "translation_error"
	FailExecution   FailKind = "execution_error"
	FailInternal    FailKind = "internal_error"
)

// Failure carries the taxonomy kind, a user-presentable message, and the
// underlying cause for logs.
type Failure struct {
	Kind    FailKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

func failf(kind FailKind, err error, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// ClarificationMessage is persisted as the assistant's answer when the
// validator rejects a translated query.
const ClarificationMessage = "I cannot run that query because it is unsafe or unsupported. Can you rephrase or be more specific?"
