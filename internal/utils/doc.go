// Package utils provides shared helpers for the sealnote CLI.
//
// # Terminal Utilities
//
//   - TerminalFd: detects whether a reader is an interactive terminal
//   - ReadPassphrase: reads hidden input from a terminal
//   - IsTerminal, IsOutputTerminal: check stdin and stderr
//
// # Output Utilities
//
//   - FormatPaths: formats file paths as an indented list
//   - DisplayPath: shortens a path relative to the working directory
//
// # System Utilities
//
//   - CurrentIdentity: who ran a command and on which host, for the audit log
package utils
