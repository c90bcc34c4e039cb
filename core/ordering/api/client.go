package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.dedis.ch/bazaar/core/access"
	"go.dedis.ch/bazaar/core/ordering"
	"go.dedis.ch/bazaar/core/txn"
	"golang.org/x/xerrors"
)

// Client is a host reached over HTTP.
//
// - implements api.Host
// - implements signed.Client
type Client struct {
	base   string
	client *http.Client
}

// NewClient returns a client of the host API served at the base URL.
func NewClient(base string, timeout time.Duration) Client {
	return Client{
		base:   strings.TrimSuffix(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// GetNonce implements api.Host.
func (c Client) GetNonce(ident access.Identity) (uint64, error) {
	text, err := access.TextOf(ident)
	if err != nil {
		return 0, xerrors.Errorf("invalid identity: %v", err)
	}

	resp, err := c.client.Get(c.base + "/nonces/" + url.PathEscape(text))
	if err != nil {
		return 0, xerrors.Errorf("failed to get nonce: %v", err)
	}

	defer resp.Body.Close()

	var msg NonceJSON

	err = DecodeResponse(resp, &msg)
	if err != nil {
		return 0, err
	}

	return msg.Nonce, nil
}

// Submit implements api.Host. The transactions must support the JSON
// encoding.
func (c Client) Submit(ctx context.Context, txs ...txn.Transaction) ([]Receipt, error) {
	req := SubmitJSON{Transactions: make([]json.RawMessage, len(txs))}

	for i, tx := range txs {
		data, err := json.Marshal(tx)
		if err != nil {
			return nil, xerrors.Errorf("failed to encode tx %d: %v", i, err)
		}

		req.Transactions[i] = data
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, xerrors.Errorf("failed to create request: %v", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, xerrors.Errorf("failed to submit: %v", err)
	}

	defer resp.Body.Close()

	var msg ReceiptsJSON

	err = DecodeResponse(resp, &msg)
	if err != nil {
		return nil, err
	}

	if len(msg.Receipts) != len(txs) {
		return nil, xerrors.Errorf("expected %d receipts but got %d",
			len(txs), len(msg.Receipts))
	}

	return msg.Receipts, nil
}

// DecodeResponse decodes the JSON body of the response in the value, or
// returns the error of the message when the status is not OK.
func DecodeResponse(resp *http.Response, v interface{}) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return xerrors.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var msg ErrorJSON

		err = json.Unmarshal(data, &msg)
		if err != nil || msg.Error == "" {
			return xerrors.Errorf("unexpected status %d", resp.StatusCode)
		}

		return xerrors.Errorf("server replied %d: %s", resp.StatusCode, msg.Error)
	}

	err = json.Unmarshal(data, v)
	if err != nil {
		return xerrors.Errorf("failed to decode response: %v", err)
	}

	return nil
}

// Local is a host running in the same process.
//
// - implements api.Host
// - implements signed.Client
type Local struct {
	host   ordering.Service
	kindOf KindOf
}

// NewLocal returns the client view of the ordering service.
func NewLocal(host ordering.Service, opts ...Option) Local {
	tmpl := options{}
	for _, opt := range opts {
		opt(&tmpl)
	}

	return Local{
		host:   host,
		kindOf: tmpl.kindOf,
	}
}

// GetNonce implements api.Host.
func (l Local) GetNonce(ident access.Identity) (uint64, error) {
	return l.host.GetNonce(ident)
}

// Submit implements api.Host.
func (l Local) Submit(ctx context.Context, txs ...txn.Transaction) ([]Receipt, error) {
	results, err := l.host.Submit(ctx, txs...)
	if err != nil {
		return nil, err
	}

	receipts := make([]Receipt, len(results))
	for i, res := range results {
		receipts[i] = ReceiptOf(res, l.kindOf)
	}

	return receipts, nil
}
