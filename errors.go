package tinyfs

import (
	"errors"
	"fmt"
)

// FSError represents a filesystem error with POSIX-style semantics
type FSError struct {
	Code    int    // POSIX-style error code
	Op      string // Operation that failed (e.g., "create", "open", "delete")
	Name    string // File name or descriptor that caused the error
	Message string // Human-readable error message
}

// Error implements the error interface
func (e *FSError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Name, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Name, e.codeMessage())
}

// codeMessage returns a human-readable message for the error code
func (e *FSError) codeMessage() string {
	switch e.Code {
	case EIO:
		return "input/output error"
	case ENOENT:
		return "no such file"
	case EBADF:
		return "bad file descriptor"
	case EBUSY:
		return "file in use"
	case EEXIST:
		return "file exists"
	case EFBIG:
		return "file too big"
	case EINVAL:
		return "invalid argument"
	case EMFILE:
		return "too many open files"
	case ENOSPC:
		return "no space left on volume"
	default:
		return fmt.Sprintf("error code %d", e.Code)
	}
}

// Is implements errors.Is for FSError
func (e *FSError) Is(target error) bool {
	var fsErr *FSError
	if errors.As(target, &fsErr) {
		return e.Code == fsErr.Code
	}
	return false
}

// Convenience constructors for common errors

// ErrIO returns an EIO error (block-store failure or corrupted image)
func ErrIO(op, name, message string) *FSError {
	return &FSError{Code: EIO, Op: op, Name: name, Message: message}
}

// ErrNoent returns an ENOENT error (no such file)
func ErrNoent(op, name string) *FSError {
	return &FSError{Code: ENOENT, Op: op, Name: name}
}

// ErrBadf returns an EBADF error (bad file descriptor)
func ErrBadf(op string, fd int) *FSError {
	return &FSError{Code: EBADF, Op: op, Name: fmt.Sprintf("fd %d", fd)}
}

// ErrBusy returns an EBUSY error (file is open)
func ErrBusy(op, name string) *FSError {
	return &FSError{Code: EBUSY, Op: op, Name: name}
}

// ErrExist returns an EEXIST error (file exists)
func ErrExist(op, name string) *FSError {
	return &FSError{Code: EEXIST, Op: op, Name: name}
}

// ErrFbig returns an EFBIG error (write past the last direct pointer)
func ErrFbig(op, name string) *FSError {
	return &FSError{Code: EFBIG, Op: op, Name: name}
}

// ErrInval returns an EINVAL error (invalid argument)
func ErrInval(op, name, message string) *FSError {
	return &FSError{Code: EINVAL, Op: op, Name: name, Message: message}
}

// ErrMfile returns an EMFILE error (open file table exhausted)
func ErrMfile(op, name string) *FSError {
	return &FSError{Code: EMFILE, Op: op, Name: name}
}

// ErrNospc returns an ENOSPC error (bitmap exhausted)
func ErrNospc(op, name string) *FSError {
	return &FSError{Code: ENOSPC, Op: op, Name: name}
}

// IsNotExist returns true if the error indicates the file does not exist
func IsNotExist(err error) bool {
	var fsErr *FSError
	if errors.As(err, &fsErr) {
		return fsErr.Code == ENOENT
	}
	return false
}

// IsExist returns true if the error indicates the file already exists
func IsExist(err error) bool {
	var fsErr *FSError
	if errors.As(err, &fsErr) {
		return fsErr.Code == EEXIST
	}
	return false
}

// IsInUse returns true if the error indicates a delete was refused because
// the file is open
func IsInUse(err error) bool {
	var fsErr *FSError
	if errors.As(err, &fsErr) {
		return fsErr.Code == EBUSY
	}
	return false
}

// IsOutOfSpace returns true if the error indicates inode or data-block
// exhaustion
func IsOutOfSpace(err error) bool {
	var fsErr *FSError
	if errors.As(err, &fsErr) {
		return fsErr.Code == ENOSPC
	}
	return false
}

// IsBadDescriptor returns true if the error indicates an unresolvable
// descriptor
func IsBadDescriptor(err error) bool {
	var fsErr *FSError
	if errors.As(err, &fsErr) {
		return fsErr.Code == EBADF
	}
	return false
}
