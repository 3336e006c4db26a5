package lnurl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ellemouton/lnscan/amount"
	"github.com/ellemouton/lnscan/node"
	"github.com/lightningnetwork/lnd/lnwire"
)

const (
	// DefaultChallengeExpiry is how long a withdraw k1 stays valid.
	DefaultChallengeExpiry = 10 * time.Minute

	// withdrawPaymentTimeout bounds the payment made after a withdraw
	// callback was accepted.
	withdrawPaymentTimeout = time.Minute
)

// InvoiceBackend is the node side of a Server.
type InvoiceBackend interface {
	node.InvoiceDecoder

	// AddInvoice creates an invoice committing to descHash.
	AddInvoice(ctx context.Context, amt lnwire.MilliSatoshi,
		descHash [32]byte) (string, error)

	// PayInvoice pays payReq.
	PayInvoice(ctx context.Context, payReq string) error
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Protocol string
	Host     string
	Port     int

	// MinSendable and MaxSendable bound what the pay endpoint accepts.
	MinSendable lnwire.MilliSatoshi
	MaxSendable lnwire.MilliSatoshi

	// CommentAllowed is the longest comment the pay endpoint accepts.
	CommentAllowed int

	// Description is the text/plain metadata of the pay endpoint and the
	// default description of the withdraw endpoint.
	Description string

	// MaxWithdrawable is what the withdraw endpoint pays out. Zero
	// disables the withdraw endpoint.
	MaxWithdrawable lnwire.MilliSatoshi

	// ChallengeExpiry is how long a withdraw k1 stays valid. Zero means
	// DefaultChallengeExpiry.
	ChallengeExpiry time.Duration

	Backend InvoiceBackend
}

// Server is an LNURL-pay and LNURL-withdraw service.
type Server struct {
	cfg      *ServerConfig
	mux      *http.ServeMux
	metadata string

	challenges   map[string]time.Time
	challengesMu sync.Mutex

	now func() time.Time
	wg  sync.WaitGroup
}

// NewServer creates a Server. Its routes are served by Handler.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.MinSendable > cfg.MaxSendable {
		return nil, fmt.Errorf("min sendable %v exceeds max sendable %v",
			cfg.MinSendable, cfg.MaxSendable)
	}
	if cfg.ChallengeExpiry == 0 {
		cfg.ChallengeExpiry = DefaultChallengeExpiry
	}

	metadata, err := json.Marshal([][2]string{
		{"text/plain", cfg.Description},
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		mux:        http.NewServeMux(),
		metadata:   string(metadata),
		challenges: make(map[string]time.Time),
		now:        time.Now,
	}

	s.mux.HandleFunc("/pay", s.pay)
	s.mux.HandleFunc("/pay/invoice", s.invoice)
	if cfg.MaxWithdrawable > 0 {
		s.mux.HandleFunc("/withdraw", s.withdraw)
		s.mux.HandleFunc("/withdraw/callback", s.withdrawCallback)
	}

	return s, nil
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Wait blocks until all withdraw payments started by the server are done.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) baseURL() string {
	return fmt.Sprintf("%s://%s:%d", s.cfg.Protocol, s.cfg.Host, s.cfg.Port)
}

// PayURL returns the static LNURL-pay code of the server.
func (s *Server) PayURL() (string, error) {
	return EncodeURL(s.baseURL() + "/pay")
}

// WithdrawURL returns the static LNURL-withdraw code of the server.
func (s *Server) WithdrawURL() (string, error) {
	return EncodeURL(s.baseURL() + "/withdraw")
}

// Banner renders the server's codes in every form wallets accept.
func (s *Server) Banner() (string, error) {
	payCode := s.baseURL() + "/pay"

	payLNURL, err := s.PayURL()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(""+
		"=======================================\n"+
		"Welcome to LNSCAN!\n"+
		"Your static LNURL-pay code is: \n"+
		"- %s\n"+
		"- lightning:%s\n"+
		"- %s\n"+
		"=======================================\n",
		payLNURL, payLNURL, strings.Replace(
			payCode, s.cfg.Protocol, "lnurlp", 1,
		),
	), nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Unable to write response: %v", err)
	}
}

// writeError answers with an LNURL error document. LNURL errors travel
// with a 200 status.
func writeError(w http.ResponseWriter, format string, args ...interface{}) {
	writeJSON(w, &StatusResponse{
		Status: StatusError,
		Reason: fmt.Sprintf(format, args...),
	})
}

func (s *Server) pay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, &PayResponse{
		Callback:       s.baseURL() + "/pay/invoice",
		MinSendable:    Msat(s.cfg.MinSendable),
		MaxSendable:    Msat(s.cfg.MaxSendable),
		Metadata:       s.metadata,
		CommentAllowed: s.cfg.CommentAllowed,
		Tag:            TagPayRequest,
	})
}

func (s *Server) invoice(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	amt := query.Get("amount")
	if amt == "" {
		writeError(w, "expected 'amount' field")
		return
	}

	milliSats, err := amount.ParseMsat(amt)
	if err != nil {
		writeError(w, "invalid 'amount' field: %v", err)
		return
	}

	if !amount.InRange(milliSats, s.cfg.MinSendable, s.cfg.MaxSendable) {
		writeError(w, "amount must be between %d and %d",
			s.cfg.MinSendable, s.cfg.MaxSendable)
		return
	}

	comment := query.Get("comment")
	if utf8.RuneCountInString(comment) > s.cfg.CommentAllowed {
		writeError(w, "comment longer than %d characters",
			s.cfg.CommentAllowed)
		return
	}

	pr, err := s.cfg.Backend.AddInvoice(
		r.Context(), milliSats, sha256Metadata(s.metadata),
	)
	if err != nil {
		log.Errorf("Unable to create invoice: %v", err)
		http.Error(w, "invoice error", http.StatusInternalServerError)
		return
	}

	log.Infof("Created invoice for %v", milliSats)

	writeJSON(w, &InvoiceResponse{
		PayRequest: pr,
		Routes:     []json.RawMessage{},
	})
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var k1 [32]byte
	if _, err := rand.Read(k1[:]); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	challenge := hex.EncodeToString(k1[:])

	s.challengesMu.Lock()
	s.pruneChallenges()
	s.challenges[challenge] = s.now().Add(s.cfg.ChallengeExpiry)
	s.challengesMu.Unlock()

	writeJSON(w, &WithdrawResponse{
		Callback:           s.baseURL() + "/withdraw/callback",
		K1:                 challenge,
		MinWithdrawable:    Msat(s.cfg.MaxWithdrawable),
		MaxWithdrawable:    Msat(s.cfg.MaxWithdrawable),
		DefaultDescription: s.cfg.Description,
		Tag:                TagWithdrawRequest,
	})
}

// pruneChallenges drops expired challenges. The caller must hold
// challengesMu.
func (s *Server) pruneChallenges() {
	now := s.now()
	for k1, expiry := range s.challenges {
		if now.After(expiry) {
			delete(s.challenges, k1)
		}
	}
}

// takeChallenge consumes k1, reporting whether it was valid.
func (s *Server) takeChallenge(k1 string) bool {
	s.challengesMu.Lock()
	defer s.challengesMu.Unlock()

	expiry, ok := s.challenges[k1]
	if !ok {
		return false
	}
	delete(s.challenges, k1)

	return !s.now().After(expiry)
}

func (s *Server) withdrawCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	k1, pr := query.Get("k1"), query.Get("pr")
	if k1 == "" || pr == "" {
		writeError(w, "expected 'k1' and 'pr' fields")
		return
	}

	inv, err := s.cfg.Backend.DecodeInvoice(r.Context(), pr)
	if err != nil {
		writeError(w, "invalid invoice: %v", err)
		return
	}

	if inv.Amount != s.cfg.MaxWithdrawable {
		writeError(w, "invoice must be for %d msat",
			s.cfg.MaxWithdrawable)
		return
	}

	if !s.takeChallenge(k1) {
		writeError(w, "already used")
		return
	}

	// The service answers first and pays afterwards.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(
			context.Background(), withdrawPaymentTimeout,
		)
		defer cancel()

		if err := s.cfg.Backend.PayInvoice(ctx, pr); err != nil {
			log.Errorf("Withdraw payment failed: %v", err)
			return
		}

		log.Infof("Paid withdraw invoice for %v", inv.Amount)
	}()

	writeJSON(w, &StatusResponse{Status: StatusOK})
}
