// Package session manages the lifetime of memory game sessions.
//
// Each session owns its own engine, so boards never share state. Sessions
// are keyed by case-insensitive IDs; generated IDs are four hex characters
// so they are easy to type into a chat or a terminal.
//
// With a SessionPersistence configured, sessions are written on creation,
// after every accepted selection (by the service layer) and after every
// delayed flip-back. A session that is not in memory is loaded from
// persistence on first access. A pair that was waiting to flip back when the
// session was written comes back face down and unlocked.
//
// A DisplayFactory lets the transport layer give each session a display,
// for example one that broadcasts board changes to WebSocket clients.
//
// Usage:
//
//	persistence, _ := session.NewFilePersistence("data/sessions", configMgr)
//	manager := session.NewManagerWithPersistence(persistence)
//	manager.SetDisplayFactory(hub.SessionDisplay)
//
//	sess, err := manager.Create("", config)
//	sess, err = manager.Get("a1b2")
package session
