// Package controller implements the initializer of the http proxy, which
// serves the host, the metrics and the routes mounted by the contracts.
package controller

import (
	"go.dedis.ch/bazaar/cli"
	"go.dedis.ch/bazaar/cli/node"
	"go.dedis.ch/bazaar/config"
	"go.dedis.ch/bazaar/proxy"
	"go.dedis.ch/bazaar/proxy/http"
	"golang.org/x/xerrors"
)

// AddrFlag is the flag that overrides the listening address of the
// configuration.
const AddrFlag = "addr"

var proxyFac func(addr string, opts ...http.Option) proxy.Proxy = func(addr string,
	opts ...http.Option) proxy.Proxy {

	return http.NewHTTP(addr, opts...)
}

// NewController returns a new initializer of the proxy.
func NewController() node.Initializer {
	return proxyController{}
}

// proxyController creates and injects the proxy so that the other
// initializers can mount their routes. The proxy listens only when the serve
// command runs.
//
// - implements node.Initializer
type proxyController struct{}

// SetCommands implements node.Initializer.
func (proxyController) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("serve")
	cmd.SetDescription("serve the host and the queries over http until the " +
		"process is interrupted")
	cmd.SetFlags(cli.StringFlag{
		Name:  AddrFlag,
		Usage: "the listening address, instead of the configured one",
	})
	cmd.SetAction(builder.MakeAction(serveAction{}))
}

// OnStart implements node.Initializer. It creates and injects the proxy.
func (proxyController) OnStart(flags cli.Flags, inj node.Injector) error {
	var cfg config.Config

	err := inj.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("failed to resolve config: %v", err)
	}

	addr := flags.String(AddrFlag)
	if addr == "" {
		addr = cfg.Server.Addr
	}

	inj.Inject(proxyFac(addr, http.WithTimeout(cfg.Server.Timeout)))

	return nil
}

// OnStop implements node.Initializer.
func (proxyController) OnStop(node.Injector) error {
	return nil
}
