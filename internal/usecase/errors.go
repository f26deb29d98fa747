package usecase

import (
	"errors"
	"fmt"
)

// DomainError is a recoverable, caller-visible failure (logic error or race).
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

var (
	ErrLeadNotFound         = &DomainError{Code: "LEAD_NOT_FOUND", Message: "lead not found"}
	ErrAlreadyAssigned      = &DomainError{Code: "ALREADY_ASSIGNED", Message: "lead is already claimed or assigned"}
	ErrAssignmentNotFound   = &DomainError{Code: "ASSIGNMENT_NOT_FOUND", Message: "assignment not found"}
	ErrOutreachAlreadySent  = &DomainError{Code: "OUTREACH_ALREADY_SENT", Message: "outreach for this assignment was already delivered"}
	ErrAssignmentSuperseded = &DomainError{Code: "ASSIGNMENT_SUPERSEDED", Message: "assignment is no longer the lead's current assignment"}
	ErrLeadNotAssigned      = &DomainError{Code: "LEAD_NOT_ASSIGNED", Message: "lead is not in ASSIGNED status"}
)

// StorageError is an unexpected persistence failure. It is not retried
// automatically; the operation fails and state stays consistent because all
// multi-row writes are transactional.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
