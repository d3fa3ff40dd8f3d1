// Package events provides an in-process publish/subscribe mechanism.
//
// Services emit an Event without knowing which handlers will process it. The
// scheduler publishes TypeScheduledMessageFired when a message reaches its
// instant; handlers registered on the InMemoryEventEmitter act on it.
package events
