// Package errors defines inkwell's typed error taxonomy.
//
// Every error the core surfaces is an *InkwellError* carrying one of the
// eleven fixed Kinds below. Constraint violations (a duplicate content hash)
// become typed errors; every other database/IO failure is wrapped and
// surfaced unchanged to the caller — the store performs no retries.
package errors

import "fmt"

// Kind is one of the fixed taxonomy members from the error handling design.
type Kind string

const (
	KindDuplicateContent Kind = "DuplicateContent"
	KindNotFound         Kind = "NotFound"
	KindStorage          Kind = "Storage"
	KindDatabase         Kind = "Database"
	KindIngest           Kind = "Ingest"
	KindSearch           Kind = "Search"
	KindInference        Kind = "Inference"
	KindIO               Kind = "Io"
	KindJSON             Kind = "Json"
	KindConfig           Kind = "Config"
	KindInternal         Kind = "Internal"
)

// retryableKinds mirrors operations where a transient failure is plausible:
// disk I/O, SQLite busy errors, and embedder inference calls.
var retryableKinds = map[Kind]bool{
	KindIO:        true,
	KindDatabase:  true,
	KindInference: true,
}

// InkwellError is the single structured error type returned by the core.
type InkwellError struct {
	Kind    Kind
	Message string

	// Hash is only meaningful for KindDuplicateContent.
	Hash string

	Cause error
}

func (e *InkwellError) Error() string {
	if e.Kind == KindDuplicateContent {
		return fmt.Sprintf("duplicate content: %s", e.Hash)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *InkwellError) Unwrap() error { return e.Cause }

// Is matches by Kind (and, for DuplicateContent, by hash) so callers can use
// errors.Is(err, errors.DuplicateContent(hash)).
func (e *InkwellError) Is(target error) bool {
	t, ok := target.(*InkwellError)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	if e.Kind == KindDuplicateContent && t.Hash != "" {
		return e.Hash == t.Hash
	}
	return true
}

// Retryable reports whether the operation that produced this error may
// succeed if retried unchanged.
func (e *InkwellError) Retryable() bool {
	return retryableKinds[e.Kind]
}

// DuplicateContent reports a content-hash collision on document insert.
func DuplicateContent(hash string) *InkwellError {
	return &InkwellError{Kind: KindDuplicateContent, Message: "content hash already indexed", Hash: hash}
}

// NotFound reports a missing entity, named by kind and id/description.
func NotFound(entity string) *InkwellError {
	return &InkwellError{Kind: KindNotFound, Message: entity}
}

func Storage(msg string) *InkwellError   { return &InkwellError{Kind: KindStorage, Message: msg} }
func Database(msg string) *InkwellError  { return &InkwellError{Kind: KindDatabase, Message: msg} }
func Ingest(msg string) *InkwellError    { return &InkwellError{Kind: KindIngest, Message: msg} }
func Search(msg string) *InkwellError    { return &InkwellError{Kind: KindSearch, Message: msg} }
func Inference(msg string) *InkwellError { return &InkwellError{Kind: KindInference, Message: msg} }
func IO(msg string) *InkwellError        { return &InkwellError{Kind: KindIO, Message: msg} }
func JSON(msg string) *InkwellError      { return &InkwellError{Kind: KindJSON, Message: msg} }
func Config(msg string) *InkwellError    { return &InkwellError{Kind: KindConfig, Message: msg} }
func Internal(msg string) *InkwellError  { return &InkwellError{Kind: KindInternal, Message: msg} }

// Wrap produces an InkwellError of the given kind around an existing error,
// preserving it as Cause for errors.Unwrap/errors.As chains. Returns nil if
// err is nil.
func Wrap(kind Kind, err error) *InkwellError {
	if err == nil {
		return nil
	}
	return &InkwellError{Kind: kind, Message: err.Error(), Cause: err}
}

// WrapDB is a convenience for the overwhelmingly common "a database call
// failed" path used throughout the store.
func WrapDB(err error) *InkwellError { return Wrap(KindDatabase, err) }

// IsRetryable reports whether err is an *InkwellError with a retryable Kind.
func IsRetryable(err error) bool {
	ie, ok := err.(*InkwellError)
	return ok && ie.Retryable()
}

// HashOf extracts the Hash field from a DuplicateContent error, or "" if err
// is not one.
func HashOf(err error) string {
	if ie, ok := err.(*InkwellError); ok && ie.Kind == KindDuplicateContent {
		return ie.Hash
	}
	return ""
}
