package lnurl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ellemouton/lnscan/node"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/require"
)

var errUnknownInvoice = errors.New("unknown invoice")

// fakeBackend is an in-memory invoice store. Payment requests are opaque
// strings mapped onto the invoices they stand for.
type fakeBackend struct {
	mu       sync.Mutex
	invoices map[string]*node.Invoice
	paid     []string
	next     int

	addErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		invoices: make(map[string]*node.Invoice),
	}
}

// add registers inv and returns its payment request.
func (b *fakeBackend) add(inv *node.Invoice) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	payReq := fmt.Sprintf("lnfake%d", b.next)

	inv.PaymentRequest = payReq
	if inv.Timestamp.IsZero() {
		inv.Timestamp = time.Now()
	}
	if inv.Expiry == 0 {
		inv.Expiry = time.Hour
	}
	b.invoices[payReq] = inv

	return payReq
}

func (b *fakeBackend) AddInvoice(_ context.Context, amt lnwire.MilliSatoshi,
	descHash [32]byte) (string, error) {

	if b.addErr != nil {
		return "", b.addErr
	}

	return b.add(&node.Invoice{
		Amount:          amt,
		DescriptionHash: append([]byte(nil), descHash[:]...),
	}), nil
}

func (b *fakeBackend) DecodeInvoice(_ context.Context,
	payReq string) (*node.Invoice, error) {

	b.mu.Lock()
	defer b.mu.Unlock()

	inv, ok := b.invoices[payReq]
	if !ok {
		return nil, errUnknownInvoice
	}

	invCopy := *inv
	return &invCopy, nil
}

func (b *fakeBackend) PayInvoice(_ context.Context, payReq string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.paid = append(b.paid, payReq)

	return nil
}

func (b *fakeBackend) paidInvoices() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string(nil), b.paid...)
}

// testService runs a Server behind an httptest listener.
type testService struct {
	*Server

	backend  *fakeBackend
	requests int32
}

func newTestService(t *testing.T, cfg *ServerConfig) *testService {
	t.Helper()

	ts := httptest.NewUnstartedServer(nil)
	addr := ts.Listener.Addr().(*net.TCPAddr)

	svc := &testService{backend: newFakeBackend()}

	cfg.Protocol = "http"
	cfg.Host = addr.IP.String()
	cfg.Port = addr.Port
	cfg.Backend = svc.backend

	server, err := NewServer(cfg)
	require.NoError(t, err)
	svc.Server = server

	ts.Config.Handler = http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&svc.requests, 1)
			server.Handler().ServeHTTP(w, r)
		},
	)
	ts.Start()
	t.Cleanup(ts.Close)

	return svc
}

func (s *testService) requestCount() int {
	return int(atomic.LoadInt32(&s.requests))
}

// staticService serves a fixed body per path and records the query of the
// last request.
type staticService struct {
	*httptest.Server

	mu        sync.Mutex
	lastQuery url.Values
}

func newStaticService(t *testing.T, status int,
	bodies map[string]string) *staticService {

	t.Helper()

	s := &staticService{}
	s.Server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			s.lastQuery = r.URL.Query()
			s.mu.Unlock()

			body, ok := bodies[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}

			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		},
	))
	t.Cleanup(s.Close)

	return s
}

func (s *staticService) query() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastQuery
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	require.NoError(t, err)

	return u
}

func newTestClient(decoder node.InvoiceDecoder) *Client {
	return NewClient(&Config{
		Timeout:       5 * time.Second,
		Decoder:       decoder,
		AllowInsecure: true,
	})
}
