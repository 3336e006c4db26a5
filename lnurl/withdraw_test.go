package lnurl

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/ellemouton/lnscan/node"
	"github.com/stretchr/testify/require"
)

func fetchWithdraw(t *testing.T, client *Client,
	svc *testService) *WithdrawMetadata {

	t.Helper()

	withdrawURL, err := svc.WithdrawURL()
	require.NoError(t, err)

	rawURL, err := DecodeURL(withdrawURL)
	require.NoError(t, err)

	meta, err := client.Fetch(context.Background(), rawURL)
	require.NoError(t, err)

	withdraw, ok := meta.(*WithdrawMetadata)
	require.True(t, ok)

	return withdraw
}

func TestWithdraw(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &ServerConfig{
		MinSendable:     1000,
		MaxSendable:     1000,
		MaxWithdrawable: 5000,
		Description:     "faucet",
	})
	client := newTestClient(svc.backend)

	meta := fetchWithdraw(t, client, svc)
	require.Equal(t, "faucet", meta.DefaultDescription)
	require.Len(t, meta.K1, 64)

	payReq := svc.backend.add(&node.Invoice{
		Amount: meta.WithdrawAmount(),
	})

	err := client.RequestWithdraw(context.Background(), meta, payReq)
	require.NoError(t, err)

	svc.Wait()
	require.Equal(t, []string{payReq}, svc.backend.paidInvoices())

	// The challenge is single use. The service answers with an error
	// document, which isn't a transport failure.
	err = client.RequestWithdraw(context.Background(), meta, payReq)
	require.ErrorIs(t, err, ErrWithdrawRejected)
	require.False(t, errors.Is(err, ErrConnection))
	require.False(t, errors.Is(err, ErrServer))

	var rejected *WithdrawRejectedError
	require.True(t, errors.As(err, &rejected))
	require.Equal(t, "already used", rejected.Reason)

	svc.Wait()
	require.Len(t, svc.backend.paidInvoices(), 1)
}

func TestWithdrawExpiredChallenge(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &ServerConfig{
		MaxSendable:     1000,
		MaxWithdrawable: 5000,
		ChallengeExpiry: time.Minute,
	})
	client := newTestClient(svc.backend)
	meta := fetchWithdraw(t, client, svc)

	svc.challengesMu.Lock()
	svc.now = func() time.Time {
		return time.Now().Add(2 * time.Minute)
	}
	svc.challengesMu.Unlock()

	payReq := svc.backend.add(&node.Invoice{Amount: 5000})
	err := client.RequestWithdraw(context.Background(), meta, payReq)
	require.ErrorIs(t, err, ErrWithdrawRejected)
	require.Empty(t, svc.backend.paidInvoices())
}

func TestWithdrawInvoiceChecks(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	wrongAmount := backend.add(&node.Invoice{Amount: 4000})

	svc := newStaticService(t, http.StatusOK, map[string]string{
		"/cb": `{"status":"OK"}`,
	})
	meta := &WithdrawMetadata{
		Callback:        mustParseURL(t, svc.URL+"/cb"),
		K1:              "k1",
		MinWithdrawable: 1000,
		MaxWithdrawable: 5000,
	}
	client := newTestClient(backend)

	err := client.RequestWithdraw(context.Background(), meta, wrongAmount)
	require.ErrorIs(t, err, ErrAmountMismatch)

	err = client.RequestWithdraw(context.Background(), meta, "lnbc1bad")
	require.ErrorIs(t, err, ErrInvalidInvoice)

	// Neither request reached the service.
	require.Nil(t, svc.query())
}

func TestWithdrawCallbackStatus(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	payReq := backend.add(&node.Invoice{Amount: 5000})

	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{
			name: "ok",
			body: `{"status":"OK"}`,
		},
		{
			name: "lower case ok",
			body: `{"status":"ok"}`,
		},
		{
			name:   "error",
			body:   `{"status":"ERROR","reason":"drained"}`,
			reason: "drained",
		},
		{
			name:   "missing status",
			body:   `{}`,
			reason: "missing status",
		},
		{
			name:   "unexpected status",
			body:   `{"status":"PENDING"}`,
			reason: `unexpected status "PENDING"`,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			svc := newStaticService(t, http.StatusOK, map[string]string{
				"/cb": test.body,
			})
			meta := &WithdrawMetadata{
				Callback:        mustParseURL(t, svc.URL+"/cb"),
				K1:              "c0ffee",
				MaxWithdrawable: 5000,
			}

			err := newTestClient(backend).RequestWithdraw(
				context.Background(), meta, payReq,
			)
			require.Equal(t, "c0ffee", svc.query().Get("k1"))
			require.Equal(t, payReq, svc.query().Get("pr"))

			if test.reason == "" {
				require.NoError(t, err)
				return
			}

			var rejected *WithdrawRejectedError
			require.True(t, errors.As(err, &rejected))
			require.Equal(t, test.reason, rejected.Reason)
		})
	}
}

func TestWithdrawRejectedWithErrorStatus(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	payReq := backend.add(&node.Invoice{Amount: 5000})

	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{
			name:   "bad request with reason",
			status: http.StatusBadRequest,
			body:   `{"status":"ERROR","reason":"already used"}`,
			reason: "already used",
		},
		{
			name:   "server error without reason",
			status: http.StatusInternalServerError,
			body:   `oops`,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			svc := newStaticService(t, test.status, map[string]string{
				"/cb": test.body,
			})
			meta := &WithdrawMetadata{
				Callback:        mustParseURL(t, svc.URL+"/cb"),
				K1:              "c0ffee",
				MaxWithdrawable: 5000,
			}

			err := newTestClient(backend).RequestWithdraw(
				context.Background(), meta, payReq,
			)

			if test.reason == "" {
				require.ErrorIs(t, err, ErrServer)
				return
			}

			var rejected *WithdrawRejectedError
			require.True(t, errors.As(err, &rejected))
			require.Equal(t, test.reason, rejected.Reason)
			require.NotErrorIs(t, err, ErrServer)
		})
	}
}

func TestFlowsWithoutDecoder(t *testing.T) {
	t.Parallel()

	svc := newStaticService(t, http.StatusOK, map[string]string{
		"/cb": `{"pr":"lnbc50n1pinvoice"}`,
	})
	client := NewClient(&Config{AllowInsecure: true})

	_, err := client.RequestInvoice(context.Background(), &PayMetadata{
		Callback:    mustParseURL(t, svc.URL+"/cb"),
		MinSendable: 1000,
		MaxSendable: 10000,
	}, 5000)
	require.ErrorIs(t, err, ErrNoDecoder)

	err = client.RequestWithdraw(context.Background(), &WithdrawMetadata{
		Callback:        mustParseURL(t, svc.URL+"/cb"),
		K1:              "c0ffee",
		MaxWithdrawable: 5000,
	}, "lnbc50n1pinvoice")
	require.ErrorIs(t, err, ErrNoDecoder)

	require.Nil(t, svc.query())
}
