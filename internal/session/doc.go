// Package session keeps the structured and textual views of one filter
// editing session in sync.
//
// Exactly one view is authoritative at a time:
//
//	Structured --SwitchToTextual-->  Textual   (tree serialized into buffer)
//	Textual    --SwitchToStructured--> Structured
//	    decode ok:   parsed tree replaces the builder's tree
//	    decode fail: previous tree kept, view switches anyway
//
// A failed switch is reported through SyncResult rather than an error so the
// caller decides whether and how to warn the user.
//
// Submit returns the payload for the surrounding form: the textual buffer
// verbatim in Textual mode, a fresh serialization in Structured mode.
package session
