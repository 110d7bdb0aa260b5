// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package ast

import (
	"fmt"
	"slices"
)

// ErrorKind classifies the failures reported by the compiler passes and the
// runtime.  Every failure is fatal for the compilation (or execution) in which
// it arises.
type ErrorKind uint8

const (
	// StructuralError indicates inconsistent parent-child links, and signals a
	// bug in the pipeline rather than in the program being compiled.
	StructuralError ErrorKind = iota
	// DanglingReference indicates an attempt to replace a node which is
	// neither attached to a parent nor the root.
	DanglingReference
	// UnboundVariable indicates an identifier which resolves to no
	// declaration.
	UnboundVariable
	// DuplicateDeclaration indicates an identifier declared twice within the
	// same scope.
	DuplicateDeclaration
	// UnknownExternalCall indicates a call to an external function for which
	// no handler is registered.
	UnknownExternalCall
	// UnknownExternalDeclaration indicates a call to an external function for
	// which no declaration is registered.
	UnknownExternalDeclaration
	// UnsupportedControlFlow indicates secret-dependent control flow which
	// cannot be made data-oblivious.
	UnsupportedControlFlow
	// LoopBoundExceeded indicates a secret-controlled loop whose trip count
	// cannot be covered by its bound.
	LoopBoundExceeded
	// IndexOutOfBounds indicates a constant matrix access outside the matrix
	// dimensions.
	IndexOutOfBounds
	// TypeMismatch indicates an operation applied to values of incompatible
	// kinds or dimensions.
	TypeMismatch
	// UnsupportedOperation indicates an operation which the selected backend
	// cannot perform on encrypted values.
	UnsupportedOperation
)

var errorKindNames = []string{
	"structural error",
	"dangling reference",
	"unbound variable",
	"duplicate declaration",
	"unknown external call",
	"unknown external declaration",
	"unsupported control flow",
	"loop bound exceeded",
	"index out of bounds",
	"type mismatch",
	"unsupported operation",
}

func (k ErrorKind) String() string {
	return errorKindNames[k]
}

// ParseErrorKind returns the error kind with a given name, as written by
// String.
func ParseErrorKind(name string) (ErrorKind, bool) {
	i := slices.Index(errorKindNames, name)
	//
	return ErrorKind(i), i >= 0
}

// Error is a failure arising from a specific node of the graph.  The node is
// NIL when the failure is not attributable to any node.
type Error struct {
	Kind ErrorKind
	Node Id
	Msg  string
}

// Sentinel errors for use with errors.Is.
var (
	ErrStructural                 = &Error{StructuralError, NIL, ""}
	ErrDanglingReference          = &Error{DanglingReference, NIL, ""}
	ErrUnboundVariable            = &Error{UnboundVariable, NIL, ""}
	ErrDuplicateDeclaration       = &Error{DuplicateDeclaration, NIL, ""}
	ErrUnknownExternalCall        = &Error{UnknownExternalCall, NIL, ""}
	ErrUnknownExternalDeclaration = &Error{UnknownExternalDeclaration, NIL, ""}
	ErrUnsupportedControlFlow     = &Error{UnsupportedControlFlow, NIL, ""}
	ErrLoopBoundExceeded          = &Error{LoopBoundExceeded, NIL, ""}
	ErrIndexOutOfBounds           = &Error{IndexOutOfBounds, NIL, ""}
	ErrTypeMismatch               = &Error{TypeMismatch, NIL, ""}
	ErrUnsupportedOperation       = &Error{UnsupportedOperation, NIL, ""}
)

// NewError constructs an error of a given kind for a given node.
func NewError(kind ErrorKind, node Id, format string, args ...any) *Error {
	return &Error{kind, node, fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Node == NIL {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	//
	return fmt.Sprintf("%s at node #%d: %s", e.Kind, e.Node, e.Msg)
}

// Is matches an error against one of the sentinel errors, comparing only the
// kind.  A dangling reference is also a structural error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	//
	if !ok || t.Node != NIL || t.Msg != "" {
		return false
	}
	//
	return t.Kind == e.Kind || (t.Kind == StructuralError && e.Kind == DanglingReference)
}
