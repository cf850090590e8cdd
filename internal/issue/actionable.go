// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// defaultOperation names the step when a caller did not.
const defaultOperation = "install invowk"

type (
	// ActionableError is a fatal installer error as shown to the operator:
	// the step that failed, the path involved, what to try next, and the
	// troubleshooting guide that covers it.
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("check privileges").
	//		WithSuggestions("Re-run the installer with sudo").
	//		WithIssue(issue.NotRootId).
	//		Wrap(install.ErrNotRoot).
	//		Build()
	ActionableError struct {
		// Operation is a verb phrase such as "verify the archive checksum".
		Operation string
		// Resource is the file or URL involved, if any.
		Resource    string
		Suggestions []string
		Cause       error
		// Issue links the guide rendered below the error; zero means none.
		Issue Id
	}

	// ErrorContext accumulates the fields of an ActionableError.
	ErrorContext struct {
		err ActionableError
	}
)

// NewErrorContext starts an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error renders "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	op := e.Operation
	if op == "" {
		op = defaultOperation
	}

	parts := []string{"failed to " + op}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format is Error followed by one bulleted line per suggestion. Verbose
// output also lists every error in the cause chain, outermost first.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		b.WriteString("\n")
	}
	for _, s := range e.Suggestions {
		b.WriteString("\n  • " + s)
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nError chain:")
		for depth, err := 1, e.Cause; err != nil; depth, err = depth+1, errors.Unwrap(err) {
			fmt.Fprintf(&b, "\n  %d. %s", depth, err)
		}
	}
	return b.String()
}

// Guide returns the linked troubleshooting guide, or nil.
func (e *ActionableError) Guide() *Issue {
	return Get(e.Issue)
}

func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.err.Operation = op
	return c
}

func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.err.Resource = res
	return c
}

// WithSuggestions appends to any suggestions already added.
func (c *ErrorContext) WithSuggestions(sugs ...string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, sugs...)
	return c
}

func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.err.Issue = id
	return c
}

func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.err.Cause = err
	return c
}

// Build returns a copy of the accumulated error. It is never nil.
func (c *ErrorContext) Build() *ActionableError {
	ae := c.err
	ae.Suggestions = append([]string(nil), c.err.Suggestions...)
	return &ae
}
