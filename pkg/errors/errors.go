// Package errors provides structured error handling for hookwire.
//
// Interception layers that isolate consumer failures (element construction
// and mount tracking) never propagate a matcher's panic to the host. They
// recover it, wrap it in a [HookError] and hand it to the global
// [ErrorHandler] instead, so a faulty consumer degrades to "did nothing"
// without disappearing silently.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindInstall indicates a failure to patch host bindings.
	KindInstall
	// KindElement indicates a failing element matcher.
	KindElement
	// KindMount indicates a failing mount matcher.
	KindMount
	// KindConfig indicates a configuration error.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindInstall:
		return "install"
	case KindElement:
		return "element"
	case KindMount:
		return "mount"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Sentinel errors returned by the runtime.
var (
	// ErrAlreadyInstalled is returned when a runtime is installed twice.
	ErrAlreadyInstalled = errors.New("hookwire: runtime already installed")
	// ErrMissingBinding is returned when a required host binding is nil.
	ErrMissingBinding = errors.New("hookwire: missing host binding")
)

// HookError represents a structured error raised inside an interception layer.
type HookError struct {
	// Op is the operation that failed (e.g., "element.Transform").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Matcher is the registration sequence number of the failing matcher, if any.
	Matcher uint64
	// Session is the id of the runtime that observed the error.
	Session string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *HookError) Error() string {
	if e.Matcher != 0 {
		return fmt.Sprintf("%s [%s] matcher=%d: %v", e.Op, e.Kind, e.Matcher, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// PanicError wraps a recovered panic value that is not an error.
type PanicError struct {
	// Op is the operation that panicked (e.g., "mount.Handle").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by hookwire.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *HookError)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return errors.As(err, target) }
