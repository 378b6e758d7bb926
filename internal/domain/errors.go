package domain

import (
	"errors"
	"fmt"
)

// Reason codes carried by reservation and admin errors. They are stable and
// returned to API clients as the "code" field.
const (
	ReasonAlreadySelected      = "already_selected"
	ReasonPackageRequired      = "package_required"
	ReasonConflictingSelection = "conflicting_selection"
	ReasonAlreadyBooked        = "already_booked"
	ReasonBusNotFound          = "bus_not_found"
	ReasonBusInactive          = "bus_inactive"
	ReasonCollegeMismatch      = "college_mismatch"
	ReasonBusFull              = "bus_full"
	ReasonPackageLimitExceeded = "package_limit_exceeded"
	ReasonDuplicate            = "duplicate"
	ReasonInUse                = "in_use"
	ReasonCapacityBelowBooked  = "capacity_below_booked"
	ReasonInvalidCredentials   = "invalid_credentials"
	ReasonAccountInactive      = "account_inactive"
	ReasonAdminNotDeletable    = "admin_not_deletable"
	ReasonSelfRoleChange       = "self_role_change"
)

type NotFoundError struct {
	Resource string
	Reason   string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// ConflictError covers already-made selections, overlapping extra places and
// duplicate unique fields.
type ConflictError struct {
	Resource string
	Reason   string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// CapacityError reports a full bus or an exhausted package quota.
type CapacityError struct {
	Resource string
	Reason   string
	Msg      string
}

func (e CapacityError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Resource != "" {
		return fmt.Sprintf("%s capacity exceeded", e.Resource)
	}
	return "capacity exceeded"
}

// MismatchError reports a request the caller may not make: a bus of another
// college, or a login to a deactivated account.
type MismatchError struct {
	Reason string
	Msg    string
}

func (e MismatchError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "mismatch"
}

type UnauthorizedError struct {
	Reason string
	Msg    string
}

func (e UnauthorizedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "unauthorized"
}

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsCapacity(err error) bool {
	var target CapacityError
	return errors.As(err, &target)
}

func IsMismatch(err error) bool {
	var target MismatchError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target UnauthorizedError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

// Reason extracts the reason code from any domain error in the chain.
func Reason(err error) string {
	var (
		nf NotFoundError
		cf ConflictError
		ca CapacityError
		mm MismatchError
		un UnauthorizedError
	)
	switch {
	case errors.As(err, &cf):
		return cf.Reason
	case errors.As(err, &ca):
		return ca.Reason
	case errors.As(err, &mm):
		return mm.Reason
	case errors.As(err, &nf):
		return nf.Reason
	case errors.As(err, &un):
		return un.Reason
	}
	return ""
}
