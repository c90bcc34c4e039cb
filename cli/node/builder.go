package node

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.dedis.ch/bazaar"
	"go.dedis.ch/bazaar/cli"
	"go.dedis.ch/bazaar/cli/ucli"
	"golang.org/x/xerrors"
)

// Global flags available to every command.
const (
	ConfigFlag = "config"
	RemoteFlag = "remote"
)

// CLIBuilder is an application builder that will build a CLI to run the
// commands of a node.
//
// - implements node.Builder
// - implements cli.Builder
type CLIBuilder struct {
	cli.Builder

	injector Injector
	inits    []Initializer
	writer   io.Writer

	// In production, the signals of the process are forwarded to the actions.
	// In case of testing, the channel is fed by the test instead.
	enableSignal bool
	sigs         chan os.Signal
}

// NewBuilder returns a new empty builder.
func NewBuilder(name string, inits ...Initializer) *CLIBuilder {
	return NewBuilderWithCfg(name, nil, nil, inits...)
}

// NewBuilderWithCfg returns a new empty builder with specific configurations.
func NewBuilderWithCfg(name string, sigs chan os.Signal, out io.Writer,
	inits ...Initializer) *CLIBuilder {

	if out == nil {
		out = os.Stdout
	}

	enabled := false

	if sigs == nil {
		sigs = make(chan os.Signal, 1)
		enabled = true
	}

	builder := ucli.NewBuilder(name, nil,
		cli.StringFlag{
			Name:    ConfigFlag,
			Usage:   "path to the configuration file",
			EnvVars: []string{"BAZAAR_CONFIG"},
		},
		cli.StringFlag{
			Name:    RemoteFlag,
			Usage:   "url of a running node to submit to instead of the local database",
			EnvVars: []string{"BAZAAR_REMOTE"},
		},
	)

	return &CLIBuilder{
		Builder:      builder,
		injector:     NewInjector(),
		inits:        inits,
		writer:       out,
		enableSignal: enabled,
		sigs:         sigs,
	}
}

// MakeAction implements node.Builder. It creates a CLI action that starts the
// initializers, executes the template and stops the initializers.
func (b *CLIBuilder) MakeAction(tmpl ActionTemplate) cli.Action {
	return func(flags cli.Flags) error {
		if b.enableSignal {
			signal.Notify(b.sigs, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(b.sigs)
		}

		started := 0

		defer func() {
			// Initializers are stopped in reverse order so that high level
			// components are stopped before lower level ones.
			for i := started - 1; i >= 0; i-- {
				err := b.inits[i].OnStop(b.injector)
				if err != nil {
					bazaar.Logger.Err(err).Msg("couldn't stop controller")
				}
			}
		}()

		for _, controller := range b.inits {
			err := controller.OnStart(flags, b.injector)
			if err != nil {
				return xerrors.Errorf("couldn't run the controller: %v", err)
			}

			started++
		}

		ctx := Context{
			Injector: b.injector,
			Flags:    flags,
			Out:      b.writer,
			Signals:  b.sigs,
		}

		return tmpl.Execute(ctx)
	}
}

// Build implements cli.Builder. It returns the application.
func (b *CLIBuilder) Build() cli.Application {
	for _, controller := range b.inits {
		controller.SetCommands(b)
	}

	return b.Builder.Build()
}
