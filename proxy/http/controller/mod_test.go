package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	gohttp "net/http"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/bazaar/cli/node"
	"go.dedis.ch/bazaar/config"
	"go.dedis.ch/bazaar/core/access"
	"go.dedis.ch/bazaar/core/ordering/api"
	"go.dedis.ch/bazaar/core/store"
	"go.dedis.ch/bazaar/core/txn"
	"go.dedis.ch/bazaar/core/validation"
	"go.dedis.ch/bazaar/internal/testing/fake"
	"go.dedis.ch/bazaar/proxy"
	"go.dedis.ch/bazaar/proxy/http"
)

func TestProxyController_SetCommands(t *testing.T) {
	builder := node.NewBuilderWithCfg("test", make(chan os.Signal, 1), io.Discard, NewController())
	builder.Build()
}

func TestProxyController_OnStart(t *testing.T) {
	ctrl := NewController()
	inj := node.NewInjector()

	err := ctrl.OnStart(node.FlagSet{}, inj)
	require.EqualError(t, err, "failed to resolve config: couldn't find dependency for 'config.Config'")

	inj.Inject(config.Default())

	err = ctrl.OnStart(node.FlagSet{AddrFlag: "127.0.0.1:0"}, inj)
	require.NoError(t, err)

	var srv proxy.Proxy
	require.NoError(t, inj.Resolve(&srv))
	require.IsType(t, &http.HTTP{}, srv)

	require.NoError(t, ctrl.OnStop(inj))
}

func TestServeAction_Execute(t *testing.T) {
	setupProm(t)

	sigs := make(chan os.Signal, 1)
	out := new(bytes.Buffer)

	inj := node.NewInjector()
	inj.Inject(config.Default())
	inj.Inject(http.NewHTTP("127.0.0.1:0"))
	inj.Inject(fakeHost{nonce: 4})

	ctx := node.Context{
		Injector: inj,
		Flags:    node.FlagSet{},
		Out:      out,
		Signals:  sigs,
	}

	errs := make(chan error, 1)

	go func() {
		errs <- serveAction{}.Execute(ctx)
	}()

	var srv proxy.Proxy
	require.NoError(t, inj.Resolve(&srv))

	addr := waitAddr(t, srv)

	resp, err := gohttp.Get("http://" + addr + api.DefaultPath + "/nonces/alice")
	require.NoError(t, err)

	var msg api.NonceJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	resp.Body.Close()
	require.Equal(t, uint64(4), msg.Nonce)

	resp, err = gohttp.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	require.Equal(t, gohttp.StatusOK, resp.StatusCode)
	resp.Body.Close()

	sigs <- syscall.SIGTERM

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("action did not return")
	}

	require.True(t, strings.HasPrefix(out.String(), "started proxy server on 127.0.0.1:"))
}

func TestServeAction_Failures(t *testing.T) {
	inj := node.NewInjector()
	ctx := node.Context{Injector: inj, Flags: node.FlagSet{}, Out: io.Discard}

	err := serveAction{}.Execute(ctx)
	require.EqualError(t, err, "failed to resolve config: couldn't find dependency for 'config.Config'")

	inj.Inject(config.Default())

	err = serveAction{}.Execute(ctx)
	require.EqualError(t, err, "failed to resolve proxy: couldn't find dependency for 'proxy.Proxy'")

	inj.Inject(http.NewHTTP("127.0.0.1:0"))

	err = serveAction{}.Execute(ctx)
	require.EqualError(t, err, "serve needs the local database: "+
		"couldn't find dependency for 'ordering.Service'")
}

func TestServeAction_NoListen(t *testing.T) {
	setupProm(t)

	defer func(retry int) {
		defaultRetry = retry
	}(defaultRetry)

	defaultRetry = 2

	inj := node.NewInjector()
	inj.Inject(config.Default())
	inj.Inject(fakeProxy{})
	inj.Inject(fakeHost{})

	ctx := node.Context{Injector: inj, Flags: node.FlagSet{}, Out: io.Discard}

	err := serveAction{}.Execute(ctx)
	require.EqualError(t, err, "failed to start proxy server")
}

// -----------------------------------------------------------------------------
// Utility functions

func setupProm(t *testing.T) {
	reg := prometheus.NewRegistry()

	promRegisterer = reg
	promGatherer = reg

	t.Cleanup(func() {
		promRegisterer = prometheus.DefaultRegisterer
		promGatherer = prometheus.DefaultGatherer
	})
}

func waitAddr(t *testing.T, srv proxy.Proxy) string {
	for i := 0; i < 100; i++ {
		addr := srv.GetAddr()
		if addr != nil {
			return addr.String()
		}

		time.Sleep(20 * time.Millisecond)
	}

	t.Fatal("proxy did not start")

	return ""
}

type fakeHost struct {
	nonce uint64
}

func (h fakeHost) Submit(context.Context, ...txn.Transaction) ([]validation.TransactionResult, error) {
	return nil, fake.GetError()
}

func (h fakeHost) GetNonce(access.Identity) (uint64, error) {
	return h.nonce, nil
}

func (h fakeHost) View(fn func(store.Snapshot) error) error {
	return fn(fake.NewSnapshot())
}

// fakeProxy never listens.
type fakeProxy struct {
	proxy.Proxy
}

func (fakeProxy) Listen() {}

func (fakeProxy) Mount(string, gohttp.Handler) {}

func (fakeProxy) GetAddr() net.Addr {
	return nil
}
