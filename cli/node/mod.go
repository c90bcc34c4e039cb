// Package node defines the Builder type, which builds the CLI application of a
// bazaar node.
//
// A node is made of initializers. Each of them sets its commands on the
// builder and, when a command is invoked, starts its components and injects
// them so that the actions of the other initializers can resolve them. The
// components are stopped in reverse order once the action returns.
package node

import (
	"io"
	"os"

	"go.dedis.ch/bazaar/cli"
)

// Builder is the builder that will be provided to the initializers, which can
// create commands and actions.
type Builder interface {
	// SetCommand creates a new command and returns its builder.
	SetCommand(name string) cli.CommandBuilder

	// MakeAction creates a CLI action from a given template. The template is
	// executed once every initializer has started.
	MakeAction(ActionTemplate) cli.Action
}

// ActionTemplate is an action that has access to the components of the node.
type ActionTemplate interface {
	// Execute processes a command received from the CLI.
	Execute(Context) error
}

// Context is the context available to the action when being invoked. It
// provides the dependency injector alongside with the input and output.
type Context struct {
	Injector Injector
	Flags    cli.Flags
	Out      io.Writer

	// Signals receives the interruptions of the process. Long running actions
	// return when it fires.
	Signals <-chan os.Signal
}

// Injector is a dependency injection abstraction.
type Injector interface {
	// Resolve populates the input with the dependency if any compatible exists.
	Resolve(interface{}) error

	// Inject stores the dependency to be resolved later on.
	Inject(interface{})
}

// Initializer is the interface that a module can implement to set its own
// commands and inject the dependencies that will be resolved in the actions.
type Initializer interface {
	// SetCommands populates the builder with the commands of the controller.
	SetCommands(Builder)

	// OnStart starts the components of the initializer and populates the
	// injector.
	OnStart(cli.Flags, Injector) error

	// OnStop stops the components and cleans the resources.
	OnStop(Injector) error
}
