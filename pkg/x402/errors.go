// Package x402 holds the core payment-layer data model shared by the
// facilitator, the x402 middleware, and the agent base: addresses, token
// amounts, transfer authorizations, and payment requirements.
package x402

import (
	"errors"
	"fmt"
)

// Kind tags an Error with the taxonomy from the payment protocol's error
// handling design: input errors, auth/identity errors, payment errors,
// validation errors, transport errors, and runtime invariant violations.
type Kind string

const (
	KindInvalidArgument      Kind = "invalid_argument"
	KindPrecisionLoss        Kind = "precision_loss"
	KindKeyNotFound          Kind = "key_not_found"
	KindVaultUnavailable     Kind = "vault_unavailable"
	KindAlreadyRegistered    Kind = "already_registered"
	KindUnauthorizedValidator Kind = "unauthorized_validator"
	KindPaymentRequired      Kind = "payment_required"
	KindInvalidSignature     Kind = "invalid_signature"
	KindInsufficientBalance  Kind = "insufficient_balance"
	KindNonceConsumed        Kind = "nonce_consumed"
	KindPaymentExpired       Kind = "payment_expired"
	KindPaymentNotAccepted   Kind = "payment_not_accepted"
	KindSettlementFailed     Kind = "settlement_failed"
	KindRequestNotFound      Kind = "request_not_found"
	KindAlreadyResponded     Kind = "already_responded"
	KindRequestExpired       Kind = "request_expired"
	KindDataMalformed        Kind = "data_malformed"
	KindTimeout              Kind = "timeout"
	KindNetworkUnavailable   Kind = "network_unavailable"
	KindRpcUnavailable       Kind = "rpc_unavailable"
	KindInvalidAgentCard     Kind = "invalid_agent_card"
	KindInternal             Kind = "internal"
)

// Error is a tagged-kind error: every failure that crosses a component
// boundary in this module carries one of the Kind values above plus a
// free-form message, per the error handling design.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, &x402.Error{Kind: K}) match any Error of kind K,
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// New builds an Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Sentinels for errors.Is comparisons against a bare kind, e.g.
// errors.Is(err, ErrKeyNotFound).
var (
	ErrKeyNotFound          = &Error{Kind: KindKeyNotFound}
	ErrVaultUnavailable     = &Error{Kind: KindVaultUnavailable}
	ErrAlreadyRegistered    = &Error{Kind: KindAlreadyRegistered}
	ErrUnauthorizedValidator = &Error{Kind: KindUnauthorizedValidator}
	ErrInvalidRating        = &Error{Kind: KindInvalidArgument, Message: "rating out of range"}
	ErrPrecisionLoss        = &Error{Kind: KindPrecisionLoss}
	ErrAlreadyResponded     = &Error{Kind: KindAlreadyResponded}
	ErrRequestExpired       = &Error{Kind: KindRequestExpired}
	ErrPaymentNotAccepted   = &Error{Kind: KindPaymentNotAccepted}
	ErrInvalidAgentCard     = &Error{Kind: KindInvalidAgentCard}
	ErrDeadlineExceeded     = &Error{Kind: KindTimeout, Message: "deadline exceeded"}
)
