// Package websocket pushes memory game updates to browser clients and takes
// their selections.
//
// A central Hub keeps the connected clients of each session. Every client has
// a read pump and a write pump goroutine; the write pump also keeps the
// connection alive with pings.
//
// Outgoing messages are JSON objects with an event name:
//
//	{"session_id":"a1b2","event":"state_update","game_state":{...}}
//	{"session_id":"a1b2","event":"display","data":{"op":"set_card_face","index":3,"face_up":true,"symbol":"C"}}
//
// "display" events come from a SessionDisplay, which the engine drives like
// any other display. Face-down cards never carry their symbol.
//
// Incoming messages select a card or restart the game:
//
//	{"action":"select","index":3}
//	{"action":"reset"}
//
// They are passed to the handler set with SetHandler; its result is sent back
// to the sender as a "result" event and errors as an "error" event.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	sessions.SetDisplayFactory(hub.SessionDisplay)
//	hub.SetHandler(server.HandleClientMessage)
package websocket
