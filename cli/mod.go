// Package cli defines the abstraction used to build the command line of a
// node. Components declare their commands and flags on a builder, and the
// implementation turns them into an application.
//
//	builder := ucli.NewBuilder("bazaar", nil)
//
//	cmd := builder.SetCommand("product")
//	sub := cmd.SetSubCommand("show")
//	sub.SetFlags(cli.Uint64Flag{Name: "id", Required: true})
//	sub.SetAction(func(flags cli.Flags) error {
//		fmt.Printf("product #%d\n", flags.Uint64("id"))
//		return nil
//	})
//
//	err := builder.Build().Run(os.Args)
package cli

import "time"

// Builder is the interface to declare the commands of an application.
type Builder interface {
	// SetCommand declares a top level command and returns its builder.
	SetCommand(name string) CommandBuilder

	// Build returns the application with every command declared so far.
	Build() Application
}

// Application is the interface to run the command line.
type Application interface {
	Run(arguments []string) error
}

// CommandBuilder is the interface to declare a command.
type CommandBuilder interface {
	// SetDescription sets the help line of the command.
	SetDescription(value string)

	// SetFlags sets the flags of the command.
	SetFlags(...Flag)

	// SetAction sets what the command does. A command without an action only
	// groups its subcommands.
	SetAction(Action)

	// SetSubCommand declares a subcommand and returns its builder.
	SetSubCommand(name string) CommandBuilder
}

// Action is the function executed when a command is invoked.
type Action func(Flags) error

// Flag is the definition of a flag.
type Flag interface {
	Flag()
}

// Flags is the interface to read the flags of an invocation, global flags
// included.
type Flags interface {
	String(name string) string

	Duration(name string) time.Duration

	// Path returns the flag as a path. It is equivalent to String.
	Path(name string) string

	Int(name string) int

	Uint64(name string) uint64

	Bool(name string) bool

	StringSlice(name string) []string
}
