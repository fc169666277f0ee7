// Package events is the publish/subscribe channel for key-lifecycle events.
//
// Observers such as the audit recorder or a key-id completion index subscribe
// without the service holding references to them:
//
//	sub := bus.Subscribe()
//	sub.OnKeyListUpdated(func(ev events.KeyListUpdated) {
//	    index.Update(ev.Keys)
//	})
//	sub.Start()
//	defer sub.Dispose()
//
// Subscription and activation are separate steps so a collaborator can finish
// constructing itself before events arrive.
//
// # Delivery
//
// Publish is synchronous. For a given subscriber and kind, handlers run in
// registration order; subscribers are visited in subscription order. Nothing
// is promised about ordering across kinds. A handler panic is recovered and
// logged and does not stop delivery to the remaining handlers.
package events
