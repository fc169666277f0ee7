// Package document reads and writes the text documents sealnote encrypts.
//
// A document is optional YAML front matter followed by a body:
//
//	---
//	title: Notes
//	.kid: 3q2-7w...
//	---
//	body text
//
// The key id lives in a front matter property whose name comes from the
// settings. Editing it keeps the other properties, their order and their
// comments intact.
//
// An encrypted body is replaced by a PEM block of type SEALNOTE MESSAGE, so
// documents remain plain text and survive editors and version control.
package document
