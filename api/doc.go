// Package api provides the HTTP REST API for the memory game.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "classic"}, optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session and its saved copy
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current board, face-down symbols hidden
//   - POST /api/sessions/{id}/select - Select a card ({"index": 3})
//   - POST /api/sessions/{id}/reset - Start a new game in the session
//   - GET /api/sessions/{id}/history - Move history (?page=1&limit=20&order=desc)
//
// Configuration:
//   - GET /api/configs - List available boards
//   - GET /api/configs/{name} - Get a board configuration
//   - POST /api/configs - Save a board configuration
//
// Results:
//   - GET /api/leaderboard - Best finished games (?config=classic&limit=10)
//
// Live updates:
//   - GET /api/sessions/{id}/ws or /ws?session={id} - WebSocket upgrade
//   - GET /health
//
// A selection that the board ignores (locked board, bad index, card already
// face up) is not an error: the response has "accepted": false and a reason.
// Accepted selections and resets are pushed to the session's WebSocket
// clients as "state_update" events.
//
// Errors are returned as JSON:
//
//	{"error": "session \"ffff\": session not found"}
//
// Unknown sessions and configs answer 404, invalid configs 400.
//
// Usage:
//
//	server := api.NewServer(gameService, hub)
//	hub.SetHandler(server.HandleClientMessage)
//	http.ListenAndServe(":8080", server)
package api
