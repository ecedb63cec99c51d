// Package domain holds the shared types and error taxonomy used across the
// replenishment engine: no package under internal/ imports database/sql
// types from here, keeping ledger/calendar/forecast/demand/policy pure.
package domain

import "fmt"

// Code is a stable, user-facing error code (e.g. "DB_001", "WF_001").
type Code string

// Severity classifies how an error should be surfaced to a caller.
type Severity string

const (
	Info     Severity = "INFO"
	Warning  Severity = "WARNING"
	Error    Severity = "ERROR"
	Critical Severity = "CRITICAL"
)

// Kind is the §7 domain error taxonomy.
type Kind string

const (
	KindDuplicateKey          Kind = "DuplicateKey"
	KindForeignKey            Kind = "ForeignKey"
	KindNotFound              Kind = "NotFound"
	KindBusinessRule          Kind = "BusinessRule"
	KindInvalidOrderDay       Kind = "InvalidOrderDay"
	KindIntegrityDiscrepancy  Kind = "IntegrityDiscrepancy"
	KindTransient             Kind = "Transient"
	KindCritical              Kind = "Critical"
)

// Err is the engine's single error type. Every repository/workflow boundary
// returns one of these (or wraps one with %w), never a bare sql.Error.
type Err struct {
	Kind       Kind
	Code       Code
	Severity   Severity
	Message    string
	Recovery   string
	Cause      error
}

func (e *Err) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Code, e.Message)
}

func (e *Err) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, domain.ErrNotFound) style matching by Kind.
func (e *Err) Is(target error) bool {
	t, ok := target.(*Err)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, code Code, sev Severity, recovery, msg string, cause error) *Err {
	return &Err{Kind: kind, Code: code, Severity: sev, Message: msg, Recovery: recovery, Cause: cause}
}

func DuplicateKey(msg string, cause error) *Err {
	return newErr(KindDuplicateKey, "DB_010", Warning, "the key already exists; treat as a no-op or fetch the existing row", msg, cause)
}

func ForeignKey(msg string, cause error) *Err {
	return newErr(KindForeignKey, "DB_011", Error, "the referenced entity is missing, or a RESTRICT delete was blocked by live references", msg, cause)
}

func NotFound(msg string, cause error) *Err {
	return newErr(KindNotFound, "DB_012", Warning, "verify the identifier and retry", msg, cause)
}

func BusinessRule(msg string, cause error) *Err {
	return newErr(KindBusinessRule, "WF_001", Error, "verify prerequisites: quantities, statuses, and enum values must satisfy the documented invariants", msg, cause)
}

func InvalidOrderDay(msg string) *Err {
	return newErr(KindInvalidOrderDay, "CAL_001", Error, "choose a date in the calendar's configured order_days", msg, nil)
}

func IntegrityDiscrepancy(msg string, cause error) *Err {
	return newErr(KindIntegrityDiscrepancy, "LEDGER_001", Warning, "lot totals disagree with ledger on_hand beyond tolerance; waste-risk is being computed conservatively", msg, cause)
}

func Transient(msg string, cause error) *Err {
	return newErr(KindTransient, "DB_001", Warning, "the store was busy after the retry budget was exhausted; wait and retry", msg, cause)
}

func CriticalErr(msg string, cause error) *Err {
	return newErr(KindCritical, "DB_099", Critical, "the store failed a startup invariant or suffered disk/corruption failure; do not proceed", msg, cause)
}

// Is* helpers let callers branch on classification without importing Kind constants.

func IsKind(err error, kind Kind) bool {
	var e *Err
	if as, ok := err.(*Err); ok {
		e = as
	} else if u, ok := err.(interface{ Unwrap() error }); ok {
		return IsKind(u.Unwrap(), kind)
	}
	return e != nil && e.Kind == kind
}
