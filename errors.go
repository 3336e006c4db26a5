package lnscan

import (
	"context"
	"errors"

	"github.com/ellemouton/lnscan/address"
	"github.com/ellemouton/lnscan/amount"
	"github.com/ellemouton/lnscan/chanbackup"
	"github.com/ellemouton/lnscan/classify"
	"github.com/ellemouton/lnscan/lnurl"
	"github.com/ellemouton/lnscan/node"
	"github.com/ellemouton/lnscan/spend"
)

// ErrorCategory tells the caller how to present an error and whether
// retrying the same action can help.
type ErrorCategory uint8

const (
	// CategoryUnknown is anything not listed below.
	CategoryUnknown ErrorCategory = iota

	// CategoryInput errors are caused by the scanned or entered data and
	// won't go away on retry.
	CategoryInput

	// CategoryRange errors carry the violated bounds for display.
	CategoryRange

	// CategoryTransport errors are worth retrying. The input may well
	// have been fine.
	CategoryTransport

	// CategoryProtocol errors end the current flow, which has to be
	// started over.
	CategoryProtocol
)

// String returns a human readable name for the category.
func (c ErrorCategory) String() string {
	switch c {
	case CategoryInput:
		return "input"

	case CategoryRange:
		return "range"

	case CategoryTransport:
		return "transport"

	case CategoryProtocol:
		return "protocol"

	default:
		return "unknown"
	}
}

var categories = []struct {
	category ErrorCategory
	errs     []error
}{
	{
		category: CategoryInput,
		errs: []error{
			classify.ErrUnrecognizedFormat,
			classify.ErrUnsupportedTransport,
			classify.ErrInvalidInvoice,
			address.ErrInvalidAddress,
			address.ErrWrongNetwork,
			amount.ErrInvalidAmount,
			lnurl.ErrInvalidEncoding,
			lnurl.ErrInvalidURL,
			lnurl.ErrInsecureURL,
			lnurl.ErrCommentTooLong,
			lnurl.ErrInvalidInvoice,
			node.ErrInvoiceExpired,
			chanbackup.ErrInvalidChanPoint,
		},
	},
	{
		category: CategoryRange,
		errs: []error{
			lnurl.ErrAmountOutOfRange,
			lnurl.ErrAmountMismatch,
			amount.ErrOverflow,
			spend.ErrInsufficientLiquidity,
			spend.ErrInsufficientFunds,
			spend.ErrBelowDust,
		},
	},
	{
		category: CategoryProtocol,
		errs: []error{
			lnurl.ErrIncompatible,
			lnurl.ErrWithdrawRejected,
			lnurl.ErrService,
			lnurl.ErrDescriptionHash,
			chanbackup.ErrInvalidBackup,
			chanbackup.ErrEmptyBackup,
		},
	},
	{
		category: CategoryTransport,
		errs: []error{
			lnurl.ErrTimeout,
			lnurl.ErrConnection,
			lnurl.ErrServer,
			lnurl.ErrMalformedResponse,
			node.ErrTimeout,
			node.ErrRPC,
			context.DeadlineExceeded,
		},
	},
}

// Category returns the category of err.
func Category(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	for _, c := range categories {
		for _, target := range c.errs {
			if errors.Is(err, target) {
				return c.category
			}
		}
	}

	return CategoryUnknown
}

// IsRetryable reports whether repeating the failed action may succeed.
func IsRetryable(err error) bool {
	return Category(err) == CategoryTransport
}
