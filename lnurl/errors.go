package lnurl

import (
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/lnwire"
)

var (
	// ErrInvalidEncoding is returned when a bech32 LNURL fails its
	// checksum, charset or hrp check.
	ErrInvalidEncoding = errors.New("invalid lnurl encoding")

	// ErrInvalidURL is returned for decoded URLs that can't be used.
	ErrInvalidURL = errors.New("invalid lnurl url")

	// ErrInsecureURL is returned for clear-text clearnet URLs.
	ErrInsecureURL = errors.New("lnurl must use https unless it is an " +
		"onion service")

	// ErrIncompatible is returned when the service's tag is missing or
	// isn't one this client supports.
	ErrIncompatible = errors.New("incompatible lnurl")

	// ErrTimeout is returned when a request exceeds its deadline.
	ErrTimeout = errors.New("lnurl request timed out")

	// ErrConnection is returned when the service can't be reached.
	ErrConnection = errors.New("lnurl service unreachable")

	// ErrServer is matched by every *ServerError.
	ErrServer = errors.New("lnurl server error")

	// ErrMalformedResponse is returned for 2xx responses that can't be
	// parsed or that violate the protocol's invariants.
	ErrMalformedResponse = errors.New("malformed lnurl response")

	// ErrAmountOutOfRange is matched by every *AmountOutOfRangeError.
	ErrAmountOutOfRange = errors.New("amount out of range")

	// ErrAmountMismatch is matched by every *AmountMismatchError.
	ErrAmountMismatch = errors.New("invoice amount mismatch")

	// ErrDescriptionHash is returned when a pay invoice doesn't commit to
	// the metadata it was requested for.
	ErrDescriptionHash = errors.New("invoice description hash does not " +
		"match metadata")

	// ErrCommentTooLong is returned when a comment exceeds the length the
	// service accepts.
	ErrCommentTooLong = errors.New("comment too long")

	// ErrInvalidInvoice is returned when the invoice handed to a withdraw
	// can't be decoded.
	ErrInvalidInvoice = errors.New("invalid invoice")

	// ErrWithdrawRejected is matched by every *WithdrawRejectedError.
	ErrWithdrawRejected = errors.New("withdraw rejected")

	// ErrNoDecoder is returned by the pay and withdraw flows of a Client
	// configured without an invoice decoder.
	ErrNoDecoder = errors.New("lnurl client has no invoice decoder")

	// ErrService is matched by every *ServiceError.
	ErrService = errors.New("lnurl service error")
)

// ServerError is returned for non-2xx HTTP responses.
type ServerError struct {
	StatusCode int

	// Body is the start of the response body, for logging.
	Body string

	// Reason is the reason field of the body, if the service sent a
	// {"status":"ERROR"} document along with the error status.
	Reason string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("lnurl server returned %d: %s",
			e.StatusCode, e.Reason)
	}

	return fmt.Sprintf("lnurl server returned %d: %s", e.StatusCode,
		e.Body)
}

// Is lets errors.Is match ErrServer.
func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}

// ServiceError is an {"status":"ERROR"} response from the service outside
// of a withdraw callback.
type ServiceError struct {
	Reason string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("lnurl service error: %s", e.Reason)
}

// Is lets errors.Is match ErrService.
func (e *ServiceError) Is(target error) bool {
	return target == ErrService
}

// AmountOutOfRangeError carries the bounds that were violated so they can
// be shown to the user.
type AmountOutOfRangeError struct {
	Amount lnwire.MilliSatoshi
	Min    lnwire.MilliSatoshi
	Max    lnwire.MilliSatoshi
}

// Error implements the error interface.
func (e *AmountOutOfRangeError) Error() string {
	return fmt.Sprintf("amount %v is outside of [%v, %v]", e.Amount,
		e.Min, e.Max)
}

// Is lets errors.Is match ErrAmountOutOfRange.
func (e *AmountOutOfRangeError) Is(target error) bool {
	return target == ErrAmountOutOfRange
}

// AmountMismatchError is returned when an invoice doesn't carry the amount
// the flow expects.
type AmountMismatchError struct {
	Expected lnwire.MilliSatoshi
	Invoice  lnwire.MilliSatoshi
}

// Error implements the error interface.
func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("invoice amount %v does not match expected %v",
		e.Invoice, e.Expected)
}

// Is lets errors.Is match ErrAmountMismatch.
func (e *AmountMismatchError) Is(target error) bool {
	return target == ErrAmountMismatch
}

// WithdrawRejectedError is returned when the withdraw callback doesn't
// answer with status OK.
type WithdrawRejectedError struct {
	Reason string
}

// Error implements the error interface.
func (e *WithdrawRejectedError) Error() string {
	return fmt.Sprintf("withdraw rejected: %s", e.Reason)
}

// Is lets errors.Is match ErrWithdrawRejected.
func (e *WithdrawRejectedError) Is(target error) bool {
	return target == ErrWithdrawRejected
}
