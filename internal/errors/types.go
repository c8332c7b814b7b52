package errors

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Error describes a failure while loading a template or extracting a document,
// together with the location it happened at
type Error struct {
	Kind       Kind      `json:"kind"`
	Op         string    `json:"op,omitempty"`
	Path       string    `json:"path,omitempty"`
	Field      string    `json:"field,omitempty"`
	Err        error     `json:"-"`
	StackTrace string    `json:"stack_trace,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Kind represents the categories of failure the extractor distinguishes
type Kind int

const (
	KindUnknown Kind = iota
	KindTemplateNotFound
	KindTemplateMalformed
	KindInputFileNotFound
	KindSectionHeaderNotFound
	KindExtractionFailure
	KindDocumentProcessingFailure
)

// String returns a string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindTemplateNotFound:
		return "TEMPLATE_NOT_FOUND"
	case KindTemplateMalformed:
		return "TEMPLATE_MALFORMED"
	case KindInputFileNotFound:
		return "INPUT_FILE_NOT_FOUND"
	case KindSectionHeaderNotFound:
		return "SECTION_HEADER_NOT_FOUND"
	case KindExtractionFailure:
		return "EXTRACTION_FAILURE"
	case KindDocumentProcessingFailure:
		return "DOCUMENT_PROCESSING_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// Fatal reports whether the kind aborts the whole run. Only pre-flight
// failures do; everything else degrades to empty output.
func (k Kind) Fatal() bool {
	switch k {
	case KindTemplateNotFound, KindTemplateMalformed, KindInputFileNotFound:
		return true
	default:
		return false
	}
}

// Sentinels for errors.Is comparisons against a kind
var (
	ErrTemplateNotFound          = &Error{Kind: KindTemplateNotFound}
	ErrTemplateMalformed         = &Error{Kind: KindTemplateMalformed}
	ErrInputFileNotFound         = &Error{Kind: KindInputFileNotFound}
	ErrSectionHeaderNotFound     = &Error{Kind: KindSectionHeaderNotFound}
	ErrExtractionFailure         = &Error{Kind: KindExtractionFailure}
	ErrDocumentProcessingFailure = &Error{Kind: KindDocumentProcessingFailure}
)

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s]", e.Kind.String())
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field %q", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an Error of the given kind
func New(kind Kind, op string, err error) *Error {
	return &Error{
		Kind:      kind,
		Op:        op,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Newf creates an Error of the given kind with a formatted cause
func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return New(kind, op, fmt.Errorf(format, args...))
}

// WithPath adds file path information to an existing Error
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithField adds the template field the failure belongs to
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// KindOf returns the kind of err, or KindUnknown when err is not an *Error
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindUnknown
		}
		err = u.Unwrap()
	}
	return KindUnknown
}

// Recover turns a panic raised inside op into an extraction failure stored in
// *errp. It must be deferred directly.
func Recover(op string, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	e := Newf(KindExtractionFailure, op, "panic: %v", r)
	e.StackTrace = string(debug.Stack())
	if errp != nil {
		*errp = e
	}
}

// Collection gathers the non-fatal failures of a batch run
type Collection struct {
	Errors []*Error `json:"errors"`
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{Errors: make([]*Error, 0)}
}

// Add appends err, wrapping plain errors as document processing failures
func (c *Collection) Add(path string, err error) {
	e, ok := err.(*Error)
	if !ok || e.Kind != KindDocumentProcessingFailure {
		e = New(KindDocumentProcessingFailure, "process document", err)
	}
	if e.Path == "" {
		e.Path = path
	}
	c.Errors = append(c.Errors, e)
}

// Len returns the number of collected failures
func (c *Collection) Len() int {
	return len(c.Errors)
}

// Summary returns a text summary of the collected failures
func (c *Collection) Summary() string {
	if len(c.Errors) == 0 {
		return "No errors"
	}
	return fmt.Sprintf("%d document(s) failed", len(c.Errors))
}
