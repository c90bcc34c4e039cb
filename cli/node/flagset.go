package node

import (
	"time"
)

// FlagSet is a flag set populated in memory. It allows an action to be
// executed outside of the CLI application.
//
// - implements cli.Flags
type FlagSet map[string]interface{}

// String implements cli.Flags. It returns the string associated with the flag
// name if it is set, otherwise it returns an empty string.
func (fset FlagSet) String(name string) string {
	v, _ := fset[name].(string)
	return v
}

// StringSlice implements cli.Flags. It returns the slice of strings associated
// with the flag name if it is set, otherwise it returns nil.
func (fset FlagSet) StringSlice(name string) []string {
	v, _ := fset[name].([]string)
	return v
}

// Duration implements cli.Flags. It returns the duration associated with the
// flag name if it is set, otherwise it returns zero.
func (fset FlagSet) Duration(name string) time.Duration {
	v, _ := fset[name].(time.Duration)
	return v
}

// Path implements cli.Flags. It returns the path associated with the flag name
// if it is set, otherwise it returns an empty string.
func (fset FlagSet) Path(name string) string {
	return fset.String(name)
}

// Int implements cli.Flags. It returns the integer associated with the flag if
// it is set, otherwise it returns zero.
func (fset FlagSet) Int(name string) int {
	v, _ := fset[name].(int)
	return v
}

// Uint64 implements cli.Flags. It returns the unsigned integer associated with
// the flag if it is set, otherwise it returns zero.
func (fset FlagSet) Uint64(name string) uint64 {
	v, _ := fset[name].(uint64)
	return v
}

// Bool implements cli.Flags. It returns the boolean associated with the flag if
// it is set, otherwise it returns false.
func (fset FlagSet) Bool(name string) bool {
	v, _ := fset[name].(bool)
	return v
}
