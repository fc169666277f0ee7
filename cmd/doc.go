// Package cmd holds the sealnote cobra commands.
//
// Commands are thin: they parse flags, call a function from
// internal/workflows and format the result. One service is built per
// process on first use and shut down by Execute, which clears every
// unlocked key.
package cmd
