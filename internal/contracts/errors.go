package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds raised by the analysis stages
// ⭐ SSOT: 에러 종류는 여기서만 정의. 호출자는 errors.Is 로 분기
var (
	ErrSchema             = errors.New("schema error")
	ErrDomain             = errors.New("domain error")
	ErrEmptyInput         = errors.New("empty input")
	ErrUnderdeterminedFit = errors.New("underdetermined fit")
)

// SchemaError a required column is missing or a cell has the wrong type
type SchemaError struct {
	Schema  Schema
	Missing []string
	Message string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema error")
	if e.Schema != "" {
		fmt.Fprintf(&b, " (%s)", e.Schema)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing column(s) %s", strings.Join(e.Missing, ", "))
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// DomainError mathematically invalid input
type DomainError struct {
	Op      string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: domain error: %s", e.Op, e.Message)
}

func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}

// EmptyInputError a required filter or join produced zero rows
type EmptyInputError struct {
	Op      string
	Message string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: empty input: %s", e.Op, e.Message)
}

func (e *EmptyInputError) Is(target error) bool {
	return target == ErrEmptyInput
}

// UnderdeterminedFitError fewer than two distinct points for a regression.
// Also matches ErrDomain.
type UnderdeterminedFitError struct {
	Gene     string
	Distinct int
}

func (e *UnderdeterminedFitError) Error() string {
	return fmt.Sprintf("efficiency: gene %q has %d distinct dilution(s), need at least 2", e.Gene, e.Distinct)
}

func (e *UnderdeterminedFitError) Is(target error) bool {
	return target == ErrUnderdeterminedFit || target == ErrDomain
}

// NewDomainError formats a DomainError
func NewDomainError(op, format string, args ...interface{}) error {
	return &DomainError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// NewEmptyInputError formats an EmptyInputError
func NewEmptyInputError(op, format string, args ...interface{}) error {
	return &EmptyInputError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err was caused by the caller's data rather
// than by infrastructure
func IsInputError(err error) bool {
	return errors.Is(err, ErrSchema) || errors.Is(err, ErrDomain) ||
		errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrUnderdeterminedFit)
}
