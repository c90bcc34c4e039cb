package cli

import "time"

// The flags below share the same fields. Name is the long name of the flag,
// Usage its help line, Required forces the user to set it, and Value is used
// when it is not set. EnvVars are the environment variables read, in order,
// when the flag is not set on the command line.

// StringFlag is the definition of a flag parsed as a string.
//
// - implements cli.Flag
type StringFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    string
	EnvVars  []string
}

// Flag implements cli.Flag.
func (StringFlag) Flag() {}

// StringSliceFlag is the definition of a flag that can be repeated, each value
// appended to the list.
//
// - implements cli.Flag
type StringSliceFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    []string
	EnvVars  []string
}

// Flag implements cli.Flag.
func (StringSliceFlag) Flag() {}

// DurationFlag is the definition of a flag parsed as a duration like "1m30s".
//
// - implements cli.Flag
type DurationFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    time.Duration
	EnvVars  []string
}

// Flag implements cli.Flag.
func (DurationFlag) Flag() {}

// IntFlag is the definition of a flag parsed as an integer.
//
// - implements cli.Flag
type IntFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    int
	EnvVars  []string
}

// Flag implements cli.Flag.
func (IntFlag) Flag() {}

// Uint64Flag is the definition of a flag parsed as an unsigned integer, like an
// identifier, a price or a quantity.
//
// - implements cli.Flag
type Uint64Flag struct {
	Name     string
	Usage    string
	Required bool
	Value    uint64
	EnvVars  []string
}

// Flag implements cli.Flag.
func (Uint64Flag) Flag() {}

// BoolFlag is the definition of a switch.
//
// - implements cli.Flag
type BoolFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    bool
	EnvVars  []string
}

// Flag implements cli.Flag.
func (BoolFlag) Flag() {}
