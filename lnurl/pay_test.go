package lnurl

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/ellemouton/lnscan/node"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/require"
)

func fetchPay(t *testing.T, client *Client, svc *testService) *PayMetadata {
	t.Helper()

	payURL, err := svc.PayURL()
	require.NoError(t, err)

	rawURL, err := DecodeURL(payURL)
	require.NoError(t, err)

	meta, err := client.Fetch(context.Background(), rawURL)
	require.NoError(t, err)

	pay, ok := meta.(*PayMetadata)
	require.True(t, ok)

	return pay
}

// TestPayFixedAmount runs the pay flow against a service that only accepts
// a single amount.
func TestPayFixedAmount(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &ServerConfig{
		MinSendable: 1000,
		MaxSendable: 1000,
		Description: "coffee",
	})
	client := newTestClient(svc.backend)

	meta := fetchPay(t, client, svc)
	amt, fixed := meta.FixedAmount()
	require.True(t, fixed)
	require.Equal(t, lnwire.MilliSatoshi(1000), amt)
	require.Equal(t, "coffee", meta.Description)

	result, err := client.RequestInvoice(context.Background(), meta, amt)
	require.NoError(t, err)
	require.Equal(t, amt, result.Invoice.Amount)

	hash := meta.DescriptionHash()
	require.Equal(t, hash[:], result.Invoice.DescriptionHash)
	require.Nil(t, result.SuccessAction)
}

func TestPayAmountOutOfRange(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &ServerConfig{
		MinSendable: 1000,
		MaxSendable: 1000,
	})
	client := newTestClient(svc.backend)
	meta := fetchPay(t, client, svc)

	before := svc.requestCount()

	for _, amt := range []lnwire.MilliSatoshi{0, 999, 1001} {
		_, err := client.RequestInvoice(
			context.Background(), meta, amt,
		)
		require.ErrorIs(t, err, ErrAmountOutOfRange)

		var rangeErr *AmountOutOfRangeError
		require.True(t, errors.As(err, &rangeErr))
		require.Equal(t, lnwire.MilliSatoshi(1000), rangeErr.Min)
		require.Equal(t, lnwire.MilliSatoshi(1000), rangeErr.Max)
	}

	// The range is checked before the callback is contacted.
	require.Equal(t, before, svc.requestCount())
}

func TestPayComment(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	payReq := backend.add(&node.Invoice{Amount: 5000})

	svc := newStaticService(t, http.StatusOK, map[string]string{
		"/cb": `{"pr":"` + payReq + `","routes":[]}`,
	})
	meta := &PayMetadata{
		Callback:       mustParseURL(t, svc.URL+"/cb?id=7"),
		MinSendable:    1000,
		MaxSendable:    10000,
		Metadata:       payMetadataJSON,
		CommentAllowed: 5,
	}
	client := newTestClient(backend)

	_, err := client.RequestInvoice(
		context.Background(), meta, 5000, WithComment("héllo"),
	)
	require.NoError(t, err)
	require.Equal(t, "héllo", svc.query().Get("comment"))
	require.Equal(t, "5000", svc.query().Get("amount"))
	require.Equal(t, "7", svc.query().Get("id"))

	_, err = client.RequestInvoice(
		context.Background(), meta, 5000, WithComment("hello!"),
	)
	require.ErrorIs(t, err, ErrCommentTooLong)
}

func TestPayInvoiceChecks(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()

	metaHash := sha256Metadata(payMetadataJSON)
	otherHash := sha256Metadata("other")

	matching := backend.add(&node.Invoice{
		Amount:          5000,
		DescriptionHash: metaHash[:],
	})
	noHash := backend.add(&node.Invoice{Amount: 5000})
	wrongAmount := backend.add(&node.Invoice{
		Amount:          6000,
		DescriptionHash: metaHash[:],
	})
	wrongHash := backend.add(&node.Invoice{
		Amount:          5000,
		DescriptionHash: otherHash[:],
	})
	expired := backend.add(&node.Invoice{
		Amount:          5000,
		DescriptionHash: metaHash[:],
		Timestamp:       time.Now().Add(-2 * time.Hour),
		Expiry:          time.Hour,
	})

	tests := []struct {
		name string
		body string
		err  error
	}{
		{
			name: "matching hash",
			body: `{"pr":"` + matching + `"}`,
		},
		{
			name: "no description hash",
			body: `{"pr":"` + noHash + `"}`,
		},
		{
			name: "amount mismatch",
			body: `{"pr":"` + wrongAmount + `"}`,
			err:  ErrAmountMismatch,
		},
		{
			name: "description hash mismatch",
			body: `{"pr":"` + wrongHash + `"}`,
			err:  ErrDescriptionHash,
		},
		{
			name: "expired",
			body: `{"pr":"` + expired + `"}`,
			err:  node.ErrInvoiceExpired,
		},
		{
			name: "undecodable",
			body: `{"pr":"lnbc1garbage"}`,
			err:  ErrMalformedResponse,
		},
		{
			name: "no invoice",
			body: `{"routes":[]}`,
			err:  ErrMalformedResponse,
		},
		{
			name: "service error",
			body: `{"status":"ERROR","reason":"node offline"}`,
			err:  ErrService,
		},
		{
			name: "lower case service error",
			body: `{"status":"error","reason":"node offline"}`,
			err:  ErrService,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			svc := newStaticService(t, http.StatusOK, map[string]string{
				"/cb": test.body,
			})
			meta := &PayMetadata{
				Callback:    mustParseURL(t, svc.URL+"/cb"),
				MinSendable: 1000,
				MaxSendable: 10000,
				Metadata:    payMetadataJSON,
			}
			client := newTestClient(backend)

			result, err := client.RequestInvoice(
				context.Background(), meta, 5000,
			)
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				return
			}

			require.NoError(t, err)
			require.Equal(
				t, lnwire.MilliSatoshi(5000),
				result.Invoice.Amount,
			)
		})
	}
}

func TestPaySuccessAction(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	payReq := backend.add(&node.Invoice{Amount: 5000})

	tests := []struct {
		name   string
		action string
		kept   bool
	}{
		{
			name:   "message",
			action: `{"tag":"message","message":"thanks"}`,
			kept:   true,
		},
		{
			name: "https url",
			action: `{"tag":"url","description":"receipt",` +
				`"url":"https://service.com/r/1"}`,
			kept: true,
		},
		{
			name:   "http url",
			action: `{"tag":"url","url":"http://service.com/r/1"}`,
		},
		{
			name:   "aes",
			action: `{"tag":"aes","ciphertext":"AA=="}`,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			svc := newStaticService(t, http.StatusOK, map[string]string{
				"/cb": `{"pr":"` + payReq + `","successAction":` +
					test.action + `}`,
			})
			meta := &PayMetadata{
				Callback:    mustParseURL(t, svc.URL+"/cb"),
				MinSendable: 5000,
				MaxSendable: 5000,
				Metadata:    payMetadataJSON,
			}

			result, err := newTestClient(backend).RequestInvoice(
				context.Background(), meta, 5000,
			)
			require.NoError(t, err)
			require.Equal(t, test.kept, result.SuccessAction != nil)
		})
	}
}
