package lnurl

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/ellemouton/lnscan/amount"
	"github.com/lightningnetwork/lnd/lnwire"
)

// Tag identifies the kind of service behind an LNURL.
type Tag string

const (
	// TagPayRequest is an LNURL-pay service (LUD-06).
	TagPayRequest Tag = "payRequest"

	// TagWithdrawRequest is an LNURL-withdraw service (LUD-03).
	TagWithdrawRequest Tag = "withdrawRequest"

	// TagLogin is an LNURL-auth challenge (LUD-04).
	TagLogin Tag = "login"

	// TagChannelRequest is an LNURL-channel service (LUD-02).
	TagChannelRequest Tag = "channelRequest"
)

const (
	// StatusOK is the status of a successful callback.
	StatusOK = "OK"

	// StatusError is the status of a failed request.
	StatusError = "ERROR"
)

// Msat is a millisatoshi amount on the wire. It is written as a JSON number
// and read from either a number or a numeric string, since services are
// inconsistent about it.
type Msat lnwire.MilliSatoshi

// MarshalJSON implements json.Marshaler.
func (m Msat) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatUint(uint64(m), 10)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Msat) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if bytes.Equal(b, []byte("null")) || len(b) == 0 {
		*m = 0
		return nil
	}

	msat, err := amount.ParseMsat(string(b))
	if err != nil {
		return err
	}

	*m = Msat(msat)

	return nil
}

// PayResponse is the first response of an LNURL-pay service.
type PayResponse struct {
	// Callback is the URL from LN SERVICE which will accept the pay request
	// parameters
	Callback string `json:"callback"`

	// MaxSendable is the max amount LN SERVICE is willing to receive
	MaxSendable Msat `json:"maxSendable"`

	// MinSendable is the min amount LN SERVICE is willing to receive, can
	// not be less than 1 or more than `maxSendable`
	MinSendable Msat `json:"minSendable"`

	// Metadata json which must be presented as raw string here, this is
	// required to pass signature verification at a later step.
	Metadata string `json:"metadata"`

	// CommentAllowed is the maximum comment length the service accepts.
	// Zero means comments are not supported.
	CommentAllowed int `json:"commentAllowed,omitempty"`

	// Type of LNURL
	Tag Tag `json:"tag"`
}

// WithdrawResponse is the first response of an LNURL-withdraw service.
type WithdrawResponse struct {
	// Callback is the URL the signed invoice is submitted to.
	Callback string `json:"callback"`

	// K1 is the challenge that must be echoed back with the invoice.
	K1 string `json:"k1"`

	// MaxWithdrawable is the max amount the service will pay out.
	MaxWithdrawable Msat `json:"maxWithdrawable"`

	// MinWithdrawable is the min amount the service will pay out.
	MinWithdrawable Msat `json:"minWithdrawable"`

	// DefaultDescription is the suggested invoice description.
	DefaultDescription string `json:"defaultDescription"`

	// Type of LNURL
	Tag Tag `json:"tag"`
}

// InvoiceResponse is the answer of an LNURL-pay callback.
type InvoiceResponse struct {
	// PayRequest is a bech32-serialized lightning invoice.
	PayRequest string `json:"pr"`

	// Routes an empty array.
	Routes []json.RawMessage `json:"routes"`

	// SuccessAction is shown to the user once the invoice is paid.
	SuccessAction *SuccessAction `json:"successAction,omitempty"`

	Status string `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// SuccessAction is a LUD-09 success action. Only the "message" and "url"
// kinds are interpreted.
type SuccessAction struct {
	Tag         string `json:"tag"`
	Message     string `json:"message,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// StatusResponse is the generic {"status", "reason"} reply used for errors
// and withdraw callbacks.
type StatusResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// envelope is decoded first to find out which variant a response is.
type envelope struct {
	Tag    Tag    `json:"tag"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}
