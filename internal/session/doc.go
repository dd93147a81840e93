// Package session drives a chat session against a remote generation service.
//
// Every user turn replays the whole transcript, preceded by a priming pair
// that carries the compiled instruction prompt:
//
//	user(prompt) -> model(ack) -> user -> model -> ... -> user(latest)
//
// Turns are handled one at a time. A failed dispatch keeps the user's turn in
// history and records no reply; the session stays usable.
package session
