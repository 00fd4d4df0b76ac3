// Package errors defines the reader's error taxonomy: one structured kind
// per failure mode, each convertible to a grpc status so the reference
// transport can surface it without losing structure.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind identifies which taxonomy entry an error belongs to.
type Kind int

const (
	KindInvalidConsistency Kind = iota
	KindNotImplemented
	KindSchemaParseError
	KindUnsupportedType
	KindSchemaCycleError
	KindSchemaRegistrationError
	KindNotEnoughReplicas
	KindNoMatchFound
	KindReadFailure
	KindCancelled
	KindDCRequired
)

var kindNames = map[Kind]string{
	KindInvalidConsistency:      "InvalidConsistency",
	KindNotImplemented:          "NotImplemented",
	KindSchemaParseError:        "SchemaParseError",
	KindUnsupportedType:         "UnsupportedType",
	KindSchemaCycleError:        "SchemaCycleError",
	KindSchemaRegistrationError: "SchemaRegistrationError",
	KindNotEnoughReplicas:       "NotEnoughReplicas",
	KindNoMatchFound:            "NoMatchFound",
	KindReadFailure:             "ReadFailure",
	KindCancelled:               "Cancelled",
	KindDCRequired:              "DCRequired",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Error is the reader's single structured error type. Every fatal condition
// in the taxonomy is surfaced as an *Error carrying its Kind, a message,
// free-form Details for logging/debugging, and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Cause   error
}

func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Details: map[string]interface{}{}, Cause: cause}
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.Details[key] = value
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, KindX) work by comparing kinds when the target is
// itself an *Error built purely to carry a Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Kind == e.Kind
}

// ToGRPCStatus maps an *Error to a structured grpc status, following the
// same code-mapping pattern the storage layer uses for StorageError.
func (e *Error) ToGRPCStatus() *status.Status {
	return status.New(e.grpcCode(), e.Error())
}

func (e *Error) grpcCode() codes.Code {
	switch e.Kind {
	case KindInvalidConsistency, KindDCRequired, KindUnsupportedType, KindSchemaParseError:
		return codes.InvalidArgument
	case KindNotImplemented:
		return codes.Unimplemented
	case KindSchemaCycleError, KindSchemaRegistrationError:
		return codes.FailedPrecondition
	case KindNotEnoughReplicas, KindReadFailure:
		return codes.Unavailable
	case KindNoMatchFound:
		return codes.NotFound
	case KindCancelled:
		return codes.Canceled
	default:
		return codes.Internal
	}
}

// Wrap wraps cause with a pkg/errors stack trace and message; the reference
// transport client uses it for failed listInstance calls.
func Wrap(cause error, message string) error {
	return pkgerrors.Wrap(cause, message)
}

func InvalidConsistency(message string) *Error {
	return New(KindInvalidConsistency, message, nil)
}

func NotImplemented(level string) *Error {
	return New(KindNotImplemented, fmt.Sprintf("consistency level %s is not implemented", level), nil).
		WithDetail("level", level)
}

func DCRequired(level string) *Error {
	return New(KindDCRequired, fmt.Sprintf("consistency level %s requires an explicit dc", level), nil).
		WithDetail("level", level)
}

func SchemaParseError(ddl string, cause error) *Error {
	return New(KindSchemaParseError, "failed to parse DDL", cause).WithDetail("ddl", ddl)
}

func UnsupportedType(typeName string) *Error {
	return New(KindUnsupportedType, fmt.Sprintf("unsupported type %q", typeName), nil).
		WithDetail("type", typeName)
}

func SchemaCycleError(udts []string) *Error {
	return New(KindSchemaCycleError, "UDT graph is not acyclic", nil).WithDetail("udts", udts)
}

func SchemaRegistrationError(keyspace, table string) *Error {
	return New(KindSchemaRegistrationError, "post-install invariant violated", nil).
		WithDetail("keyspace", keyspace).WithDetail("table", table)
}

func NotEnoughReplicas(rangeDesc string, want, got int, dc string) *Error {
	return New(KindNotEnoughReplicas, fmt.Sprintf("need %d replicas, have %d", want, got), nil).
		WithDetail("range", rangeDesc).WithDetail("want", want).WithDetail("got", got).WithDetail("dc", dc)
}

func NoMatchFound(rangeDesc string) *Error {
	return New(KindNoMatchFound, "no caller filter overlaps partition range", nil).WithDetail("range", rangeDesc)
}

func ReadFailure(partitionID int, rangeDesc string, attempted []string) *Error {
	return New(KindReadFailure, "all replica attempts exhausted", nil).
		WithDetail("partition_id", partitionID).WithDetail("range", rangeDesc).WithDetail("attempted", attempted)
}

func Cancelled(partitionID int) *Error {
	return New(KindCancelled, "cancelled by caller", nil).WithDetail("partition_id", partitionID)
}
