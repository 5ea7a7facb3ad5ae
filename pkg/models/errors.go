package models

import "fmt"

// Error taxonomy shared by the workflow layer and the HTTP handlers.
// Handlers translate these to status codes; everything else is a 500.

type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string {
	if e.Msg == "" {
		return "unauthorized"
	}
	return e.Msg
}

type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string {
	if e.Msg == "" {
		return "forbidden"
	}
	return e.Msg
}

type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// InvalidStateError is returned when an action is attempted from a
// status that does not permit it, e.g. declining an invitation twice.
type InvalidStateError struct {
	Entity string
	From   string
	Action string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s from status %s", e.Action, e.Entity, e.From)
}

type ExpiredError struct {
	Entity string
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("%s has expired", e.Entity)
}
