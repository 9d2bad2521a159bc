// Copyright 2023 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package xfserror defines the error taxonomy shared by every xfs
// decoding package: a small, closed set of kinds callers can branch on
// with errors.Is, each wrapping whatever lower-level error (an io error,
// a short read) actually occurred.
package xfserror

import (
	"errors"
	"fmt"
)

// Kind classifies why a decode or lookup failed.
type Kind int

const (
	// Internal marks a bug in this library (an invariant we believed
	// always held did not).
	Internal Kind = iota
	// Corrupt marks on-disk data that fails a structural check: bad
	// magic, a checksum mismatch, a field out of its legal range.
	Corrupt
	// IO marks a failure reading from the underlying byte source.
	IO
	// Unsupported marks a feature bit or format version this library
	// does not decode.
	Unsupported
	// NotFound marks a lookup (inode number, path component, directory
	// entry, attribute name) that did not resolve.
	NotFound
	// Aborted marks an operation cut short by Volume.SignalAbort.
	Aborted
	// InvalidArgument marks a caller-supplied argument that is invalid
	// on its face, independent of any on-disk state.
	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case Corrupt:
		return "corrupt"
	case IO:
		return "io"
	case Unsupported:
		return "unsupported"
	case NotFound:
		return "not found"
	case Aborted:
		return "aborted"
	case InvalidArgument:
		return "invalid argument"
	default:
		return "internal"
	}
}

// Sentinel values so callers can write errors.Is(err, xfserror.ErrNotFound)
// without constructing an *Error themselves.
var (
	ErrInternal        = &Error{Kind: Internal, Msg: "internal error"}
	ErrCorrupt         = &Error{Kind: Corrupt, Msg: "corrupt structure"}
	ErrIO              = &Error{Kind: IO, Msg: "i/o error"}
	ErrUnsupported     = &Error{Kind: Unsupported, Msg: "unsupported"}
	ErrNotFound        = &Error{Kind: NotFound, Msg: "not found"}
	ErrAborted         = &Error{Kind: Aborted, Msg: "aborted"}
	ErrInvalidArgument = &Error{Kind: InvalidArgument, Msg: "invalid argument"}
)

func sentinelFor(k Kind) *Error {
	switch k {
	case Corrupt:
		return ErrCorrupt
	case IO:
		return ErrIO
	case Unsupported:
		return ErrUnsupported
	case NotFound:
		return ErrNotFound
	case Aborted:
		return ErrAborted
	case InvalidArgument:
		return ErrInvalidArgument
	default:
		return ErrInternal
	}
}

// Error is the concrete error type returned by every package under
// internal/xfs. It is comparable against its Kind's sentinel via
// errors.Is, and unwraps to Cause for callers that want the underlying
// error.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for e's Kind, so
// errors.Is(err, xfserror.ErrCorrupt) matches any *Error of Kind Corrupt
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf constructs an *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error around a lower-level cause.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Wrapf constructs an *Error around a lower-level cause with a formatted
// message.
func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is an *Error of the given kind, following wrap
// chains via errors.Is.
func Is(err error, kind Kind) bool {
	return errors.Is(err, sentinelFor(kind))
}
