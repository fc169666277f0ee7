// Package service is the entry point to sealnote's key management.
//
// A Service wires the key store, the authorization cache, the cipher engine
// and the event bus behind one object:
//
//	svc, err := service.New(service.Options{
//		Store:       configs.FileStore{Dir: dir},
//		Passphrases: prompt.NewTerminal(),
//	})
//	ok, err := svc.Authorize(ctx, id)
//	ciphertext, err := svc.Encrypt(id, plaintext)
//
// Encrypt and Decrypt never prompt; callers Authorize first and handle
// ErrNotAuthorized by authorizing again.
//
// # Events
//
// Subscribe returns a handle that delivers nothing until Start is called.
// Creating a key publishes key-list-updated followed by key-created, deleting
// one publishes key-list-updated followed by key-deleted, and every Authorize
// call publishes authorization-requested.
//
// # Lifetime
//
// A process should hold a single Service. Shutdown clears all authorizations
// and disposes every subscriber; the Service cannot be used afterwards.
package service
