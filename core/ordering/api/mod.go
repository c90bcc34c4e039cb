// Package api exposes an ordering service over HTTP. Clients submit signed
// transactions and fetch the nonce of their identity, and receive one receipt
// per transaction.
package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.dedis.ch/bazaar"
	"go.dedis.ch/bazaar/core/access"
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/ordering"
	"go.dedis.ch/bazaar/core/txn"
	"go.dedis.ch/bazaar/core/validation"
	"golang.org/x/xerrors"
)

// DefaultPath is the path under which a node mounts the router.
const DefaultPath = "/host"

// MaxBodySize is the maximum size of a submission in bytes.
const MaxBodySize = 1 << 20

// KindOf returns the kind of failure of a rejected transaction, or nil when the
// failure has no kind.
type KindOf func(error) error

// Host is the client side view of a host.
type Host interface {
	// GetNonce returns the nonce expected for the next transaction of the
	// identity.
	GetNonce(ident access.Identity) (uint64, error)

	// Submit submits the transactions and returns one receipt per
	// transaction.
	Submit(ctx context.Context, txs ...txn.Transaction) ([]Receipt, error)
}

// Receipt is the outcome of a transaction as seen by a client.
type Receipt struct {
	ID       string      `json:"id"`
	Accepted bool        `json:"accepted"`
	Reason   string      `json:"reason,omitempty"`
	Kind     string      `json:"kind,omitempty"`
	Events   []EventJSON `json:"events,omitempty"`
}

// EventJSON is the JSON message of an event.
type EventJSON struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// SubmitJSON is the JSON message of a submission.
type SubmitJSON struct {
	Transactions []json.RawMessage `json:"transactions"`
}

// ReceiptsJSON is the JSON message of the answer to a submission.
type ReceiptsJSON struct {
	Receipts []Receipt `json:"receipts"`
}

// NonceJSON is the JSON message of a nonce.
type NonceJSON struct {
	Identity string `json:"identity"`
	Nonce    uint64 `json:"nonce"`
}

// ErrorJSON is the JSON message of a failed request.
type ErrorJSON struct {
	Error string `json:"error"`
}

// ReceiptOf returns the receipt of a transaction result.
func ReceiptOf(res validation.TransactionResult, kindOf KindOf) Receipt {
	accepted, reason := res.GetStatus()

	receipt := Receipt{
		ID:       hex.EncodeToString(res.GetTransaction().GetID()),
		Accepted: accepted,
		Reason:   reason,
	}

	if kindOf != nil && res.GetError() != nil {
		kind := kindOf(res.GetError())
		if kind != nil {
			receipt.Kind = kind.Error()
		}
	}

	for _, evt := range res.GetEvents() {
		receipt.Events = append(receipt.Events, EventJSON{
			Type:       evt.Type,
			Attributes: evt.Attributes,
		})
	}

	return receipt
}

// Event returns the event of the message.
func (e EventJSON) Event() events.Event {
	return events.Event{
		Type:       e.Type,
		Attributes: e.Attributes,
	}
}

// Option is the type of options of the handler and the local host.
type Option func(*options)

type options struct {
	kindOf  KindOf
	watcher *events.Watcher
}

// WithKindOf sets the function that names the failure of rejected
// transactions.
func WithKindOf(fn KindOf) Option {
	return func(opts *options) {
		opts.kindOf = fn
	}
}

// WithWatcher enables the stream of the committed events.
func WithWatcher(w *events.Watcher) Option {
	return func(opts *options) {
		opts.watcher = w
	}
}

type handler struct {
	host    ordering.Service
	fac     txn.Factory
	kindOf  KindOf
	watcher *events.Watcher
	logger  zerolog.Logger
}

// NewRouter returns the router of the host endpoints:
//
//	POST /transactions
//	GET  /nonces/{identity}
//	GET  /events (only with a watcher)
func NewRouter(host ordering.Service, fac txn.Factory, opts ...Option) chi.Router {
	tmpl := options{}
	for _, opt := range opts {
		opt(&tmpl)
	}

	h := handler{
		host:    host,
		fac:     fac,
		kindOf:  tmpl.kindOf,
		watcher: tmpl.watcher,
		logger:  bazaar.Logger.With().Str("role", "host api").Logger(),
	}

	router := chi.NewRouter()
	router.Post("/transactions", h.submit)
	router.Get("/nonces/{identity}", h.nonce)

	if h.watcher != nil {
		router.Get("/events", h.stream)
	}

	return router
}

func (h handler) submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize))
	if err != nil {
		WriteError(w, http.StatusBadRequest, xerrors.Errorf("failed to read body: %v", err))
		return
	}

	var req SubmitJSON

	err = json.Unmarshal(body, &req)
	if err != nil {
		WriteError(w, http.StatusBadRequest, xerrors.Errorf("failed to decode request: %v", err))
		return
	}

	if len(req.Transactions) == 0 {
		WriteError(w, http.StatusBadRequest, xerrors.New("no transaction"))
		return
	}

	txs := make([]txn.Transaction, len(req.Transactions))
	for i, data := range req.Transactions {
		txs[i], err = h.fac.TransactionOf(data)
		if err != nil {
			WriteError(w, http.StatusBadRequest, xerrors.Errorf("tx %d: %v", i, err))
			return
		}
	}

	results, err := h.host.Submit(r.Context(), txs...)
	if err != nil {
		h.logger.Err(err).Msg("submission failed")
		WriteError(w, http.StatusInternalServerError, xerrors.Errorf("failed to submit: %v", err))
		return
	}

	resp := ReceiptsJSON{Receipts: make([]Receipt, len(results))}
	for i, res := range results {
		resp.Receipts[i] = ReceiptOf(res, h.kindOf)
	}

	WriteJSON(w, http.StatusOK, resp)
}

func (h handler) nonce(w http.ResponseWriter, r *http.Request) {
	text, err := url.PathUnescape(chi.URLParam(r, "identity"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, xerrors.Errorf("invalid identity: %v", err))
		return
	}

	ident := TextIdentity(text)

	nonce, err := h.host.GetNonce(ident)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, xerrors.Errorf("failed to get nonce: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, NonceJSON{Identity: string(ident), Nonce: nonce})
}

// TextIdentity is an identity known only by its text form. The host derives
// the nonce of an identity from its text form only.
//
// - implements access.Identity
type TextIdentity string

// MarshalText implements encoding.TextMarshaler.
func (ident TextIdentity) MarshalText() ([]byte, error) {
	return []byte(ident), nil
}

// WriteJSON writes the value as JSON with the status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error as JSON with the status code.
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, ErrorJSON{Error: err.Error()})
}
