package controller

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/bazaar/cli/node"
	"go.dedis.ch/bazaar/config"
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/ordering"
	"go.dedis.ch/bazaar/core/ordering/api"
	"go.dedis.ch/bazaar/core/txn/signed"
	"go.dedis.ch/bazaar/proxy"
	"go.dedis.ch/bazaar/proxy/http"
	"golang.org/x/xerrors"
)

var defaultRetry = 50

var retryDelay = 100 * time.Millisecond

var promRegisterer prometheus.Registerer = prometheus.DefaultRegisterer

var promGatherer prometheus.Gatherer = prometheus.DefaultGatherer

// serveAction mounts the host and the metrics on the proxy and serves until
// the process is interrupted.
//
// - implements node.ActionTemplate
type serveAction struct{}

// Execute implements node.ActionTemplate.
func (serveAction) Execute(ctx node.Context) error {
	var cfg config.Config

	err := ctx.Injector.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("failed to resolve config: %v", err)
	}

	var srv proxy.Proxy

	err = ctx.Injector.Resolve(&srv)
	if err != nil {
		return xerrors.Errorf("failed to resolve proxy: %v", err)
	}

	var host ordering.Service

	err = ctx.Injector.Resolve(&host)
	if err != nil {
		return xerrors.Errorf("serve needs the local database: %v", err)
	}

	opts := []api.Option{}

	var kindOf api.KindOf

	err = ctx.Injector.Resolve(&kindOf)
	if err == nil {
		opts = append(opts, api.WithKindOf(kindOf))
	}

	var watcher *events.Watcher

	err = ctx.Injector.Resolve(&watcher)
	if err == nil {
		opts = append(opts, api.WithWatcher(watcher))
	}

	srv.Mount(api.DefaultPath, api.NewRouter(host, signed.NewTransactionFactory(), opts...))

	prom, err := http.NewPromHandler(promRegisterer, promGatherer)
	if err != nil {
		return xerrors.Errorf("failed to create metrics handler: %v", err)
	}

	srv.Mount(cfg.Server.MetricsPath, prom)

	done := make(chan struct{})

	go func() {
		srv.Listen()
		close(done)
	}()

	for i := 0; i < defaultRetry && srv.GetAddr() == nil; i++ {
		time.Sleep(retryDelay)
	}

	if srv.GetAddr() == nil {
		return xerrors.Errorf("failed to start proxy server")
	}

	fmt.Fprintf(ctx.Out, "started proxy server on %s\n", srv.GetAddr())

	<-ctx.Signals

	srv.Stop()
	<-done

	return nil
}
