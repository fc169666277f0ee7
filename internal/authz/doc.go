// Package authz caches passphrase authorizations per key.
//
// An authorization is created when a human supplies a passphrase that unseals
// the key, and lives until it has been idle for the key's timeout:
//
//	granted at t0, timeout T
//	Renew at t0+T-ε  -> true, expiry moves to t0+2T-ε
//	Renew at t0+3T   -> false, entry evicted
//
// A timeout of zero means the authorization never expires. The per-key
// override in keys.Record takes precedence over the default.
//
// The cipher engine reads passphrases with PeekSecret, which neither prompts
// nor renews, and calls Renew once a transform succeeds. Authorize is the
// single entry point that may block on a human; its prompt runs outside the
// cache lock and concurrent requests for the same key are folded into one
// prompt with singleflight.
package authz
