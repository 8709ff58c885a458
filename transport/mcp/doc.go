// Package mcp exposes the memory game to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool calls the REST API of a running
// server and renders the answer as text. Boards are drawn row by row with the
// card index in front of each card:
//
//	Moves: 3 | Pairs: 1/8
//
//	  0:??     1:[B]    2: A     3: A
//	  ...
//
// "??" is a face-down card, "[B]" a card turned over in the current move and
// " A " a matched card.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, select_card, select_pair, reset_game, move_history
//   - list_configs, leaderboard, game_instructions
//
// Errors from the API are returned as tool errors, never as Go errors.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
