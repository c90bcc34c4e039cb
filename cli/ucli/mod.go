// Package ucli implements the cli builder with urfave/cli.
package ucli

import (
	"fmt"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/bazaar/cli"
)

// Builder is the urfave/cli implementation of the builder.
//
// - implements cli.Builder
type Builder struct {
	name     string
	usage    string
	action   cli.Action
	flags    []cli.Flag
	commands []*command
}

// NewBuilder returns a builder of an application. The action is executed when
// no command is given and can be nil. The flags are global and available to
// every command.
func NewBuilder(name string, action cli.Action, flags ...cli.Flag) cli.Builder {
	return &Builder{
		name:   name,
		action: action,
		flags:  flags,
	}
}

// SetUsage sets the help line of the application.
func (b *Builder) SetUsage(usage string) {
	b.usage = usage
}

// SetCommand implements cli.Builder.
func (b *Builder) SetCommand(name string) cli.CommandBuilder {
	cmd := &command{name: name}
	b.commands = append(b.commands, cmd)

	return cmd
}

// Build implements cli.Builder. It panics if a flag has an unknown type.
func (b *Builder) Build() cli.Application {
	app := &urfave.App{
		Name:     b.name,
		Usage:    b.usage,
		Flags:    buildFlags(b.flags),
		Action:   makeAction(b.action),
		Commands: buildCommands(b.commands),
	}

	app.Setup()

	return app
}

// command is the declaration of a command before it is built.
//
// - implements cli.CommandBuilder
type command struct {
	name        string
	description string
	action      cli.Action
	flags       []cli.Flag
	subcommands []*command
}

// SetDescription implements cli.CommandBuilder.
func (c *command) SetDescription(value string) {
	c.description = value
}

// SetFlags implements cli.CommandBuilder.
func (c *command) SetFlags(flags ...cli.Flag) {
	c.flags = flags
}

// SetAction implements cli.CommandBuilder.
func (c *command) SetAction(action cli.Action) {
	c.action = action
}

// SetSubCommand implements cli.CommandBuilder.
func (c *command) SetSubCommand(name string) cli.CommandBuilder {
	sub := &command{name: name}
	c.subcommands = append(c.subcommands, sub)

	return sub
}

func buildCommands(cmds []*command) []*urfave.Command {
	res := make([]*urfave.Command, 0, len(cmds))

	for _, cmd := range cmds {
		res = append(res, &urfave.Command{
			Name:        cmd.name,
			Usage:       cmd.description,
			Flags:       buildFlags(cmd.flags),
			Action:      makeAction(cmd.action),
			Subcommands: buildCommands(cmd.subcommands),
		})
	}

	return res
}

func buildFlags(flags []cli.Flag) []urfave.Flag {
	res := make([]urfave.Flag, 0, len(flags))

	for _, f := range flags {
		res = append(res, buildFlag(f))
	}

	return res
}

func buildFlag(f cli.Flag) urfave.Flag {
	switch e := f.(type) {
	case cli.StringFlag:
		return &urfave.StringFlag{Name: e.Name, Usage: e.Usage,
			Required: e.Required, Value: e.Value, EnvVars: e.EnvVars}
	case cli.StringSliceFlag:
		return &urfave.StringSliceFlag{Name: e.Name, Usage: e.Usage,
			Required: e.Required, Value: urfave.NewStringSlice(e.Value...), EnvVars: e.EnvVars}
	case cli.DurationFlag:
		return &urfave.DurationFlag{Name: e.Name, Usage: e.Usage,
			Required: e.Required, Value: e.Value, EnvVars: e.EnvVars}
	case cli.IntFlag:
		return &urfave.IntFlag{Name: e.Name, Usage: e.Usage,
			Required: e.Required, Value: e.Value, EnvVars: e.EnvVars}
	case cli.Uint64Flag:
		return &urfave.Uint64Flag{Name: e.Name, Usage: e.Usage,
			Required: e.Required, Value: e.Value, EnvVars: e.EnvVars}
	case cli.BoolFlag:
		return &urfave.BoolFlag{Name: e.Name, Usage: e.Usage,
			Required: e.Required, Value: e.Value, EnvVars: e.EnvVars}
	default:
		panic(fmt.Sprintf("flag type '%T' not supported", f))
	}
}

// makeAction returns nil for a nil action so that urfave prints the help of a
// command that only groups subcommands.
func makeAction(action cli.Action) urfave.ActionFunc {
	if action == nil {
		return nil
	}

	return func(ctx *urfave.Context) error {
		return action(ctx)
	}
}
