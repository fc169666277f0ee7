// Package prompt implements the interactive questions sealnote asks a human:
// unlocking a key and choosing the parameters of a new one.
//
// Terminal reads from any io.Reader, so scripted input works the same as a
// keyboard; only passphrase echo suppression needs a real terminal.
package prompt
