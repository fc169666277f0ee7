// Package ui provides semantic text formatting for sealnote's CLI output.
//
// Formatters are chosen by what the text is, not by how it should look:
//
//	ui.Code.Sprint("sealnote keys create")   // Commands
//	ui.Path.Sprint("notes/diary.md")         // Document paths
//	ui.Highlight.Sprint("work")              // Key names
//	ui.KeyID.Sprint("Xc2f...")               // Key ids
//	ui.Muted.Sprint("first pet")             // Passphrase hints
//
// Colors are disabled when NO_COLOR is set or the terminal cannot show
// them. Code, Highlight, Muted and KeyID then fall back to text decorations
// so the distinction survives in plain output.
package ui
