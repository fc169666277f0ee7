// Package logger provides leveled logging for sealnote.
//
// Levels follow the --verbose and --debug flags:
//
//	Infof, Warnf      --verbose or --debug
//	Debugf, Errorf    --debug only
//	WarnfAlways       always
//
// ErrorfAndReturn logs at error level and hands the message back as an
// error, for returning from a cobra RunE.
//
// The zero Logger writes to stdout and stderr and is silent except for
// WarnfAlways, so internal packages can take one as an optional setting.
package logger
