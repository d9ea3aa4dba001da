package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ValidationError is raised before any remote call when input breaks a rule.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return "invalid " + e.Field
	default:
		return "validation error"
	}
}

// ValidationErrors collects every violation found in one pass.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 1 {
		return v[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors", len(v))
	for _, e := range v {
		msg += "; " + e.Error()
	}
	return msg
}

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return e.Resource + " not found"
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ConflictError reports a request the remote store or a state machine refused.
type ConflictError struct {
	Resource string
	Msg      string
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return e.Resource + " conflict"
	default:
		return "conflict"
	}
}

type ForbiddenError struct {
	Action string
}

func (e ForbiddenError) Error() string {
	if e.Action == "" {
		return "forbidden"
	}
	return "not allowed to " + e.Action
}

// ParseError marks a stored or received record that does not decode into its typed form.
type ParseError struct {
	Record string
	Field  string
	Err    error
}

func (e ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parse %s.%s: %v", e.Record, e.Field, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Record, e.Err)
}

func (e ParseError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var single ValidationError
	var multi ValidationErrors
	return errors.As(err, &single) || errors.As(err, &multi)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsParse(err error) bool {
	var target ParseError
	return errors.As(err, &target)
}

func itoa(n int) string { return strconv.Itoa(n) }
