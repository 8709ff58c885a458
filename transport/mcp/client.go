package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Memory Match Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Memory Match Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
All cards start face down. Turn over two cards per move; equal symbols stay
face up as a matched pair, different symbols flip back after a short delay.
Match every pair in as few moves as possible.

AVAILABLE TOOLS:
- create_session: Create new game session
- list_sessions / get_session: Inspect sessions
- game_state: Show the board
- select_card: Turn over one card by index
- select_pair: Turn over two cards in one call
- reset_game: Start a new game in the session
- move_history: Past moves with the symbols that were seen
- list_configs: Available boards
- leaderboard: Best finished games
- game_instructions: Full rules and strategy`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the board config to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board. Face-down cards show as ??",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_card",
		Description: "Turn over the card at index. The second card of a turn counts as one move",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"index": map[string]interface{}{
					"type":        "integer",
					"minimum":     0,
					"description": "Card index, counted row by row from 0",
				},
			},
			Required: []string{"session_id", "index"},
		},
	}, c.handleSelectCard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_pair",
		Description: "Turn over two cards as one move and report whether they matched",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"first": map[string]interface{}{
					"type":        "integer",
					"minimum":     0,
					"description": "Index of the first card",
				},
				"second": map[string]interface{}{
					"type":        "integer",
					"minimum":     0,
					"description": "Index of the second card",
				},
			},
			Required: []string{"session_id", "first", "second"},
		},
	}, c.handleSelectPair)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start a new shuffled game in the session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the move history of a session with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Moves per page (default 20)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest (asc) or newest (desc, default) first",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	// Configuration and results
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available board configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leaderboard",
		Description: "Show the best finished games, fewest moves first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Only games on this board (optional)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Number of entries (default 10)",
				},
			},
		},
	}, c.handleLeaderboard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the game and tips for playing it well",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads an integer argument; JSON numbers arrive as float64
func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func sessionPath(sessionID string, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		progress := ""
		if s.GameState != nil {
			progress = fmt.Sprintf(", %d/%d pairs in %d moves", s.GameState.MatchedPairs, s.GameState.TotalPairs, s.GameState.Moves)
		}
		fmt.Fprintf(&b, "- %s (Config: %s%s, Created: %s)\n",
			s.ID, s.ConfigName, progress, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) selectCard(ctx context.Context, sessionID string, index int) (*service.SelectResult, error) {
	var result service.SelectResult
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/select"), map[string]int{"index": index}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) handleSelectCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	index, ok := intArg(args, "index")
	if !ok {
		return mcp.NewToolResultError("index is required"), nil
	}

	result, err := c.selectCard(ctx, sessionID, index)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSelectResult(result)), nil
}

func (c *Client) handleSelectPair(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	first, ok1 := intArg(args, "first")
	second, ok2 := intArg(args, "second")
	if !ok1 || !ok2 {
		return mcp.NewToolResultError("first and second are required"), nil
	}

	firstResult, err := c.selectCard(ctx, sessionID, first)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !firstResult.Accepted {
		return mcp.NewToolResultText(formatSelectResult(firstResult)), nil
	}
	if firstResult.Outcome != engine.OutcomeRevealed {
		// first already completed a pending turn
		return mcp.NewToolResultText(formatSelectResult(firstResult)), nil
	}

	secondResult, err := c.selectCard(ctx, sessionID, second)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Card %d: %s\n", first, cardSymbol(firstResult.Cards, first))
	b.WriteString(formatSelectResult(secondResult))
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Pairs: %d, Cards: %d, Flip-back: %dms\n\n",
			config.ConfigID, config.Name, config.Description, config.Pairs, config.DeckSize, config.FlipBackDelayMs)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	params := url.Values{}
	if configID, ok := args["config_id"].(string); ok && configID != "" {
		params.Set("config", configID)
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}

	path := "/api/leaderboard"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response struct {
		Config  string                `json:"config"`
		Results []*service.GameResult `json:"results"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLeaderboard(response.Config, response.Results)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🃏 Memory Match Game - Complete Instructions

GAME OBJECTIVE:
Find every pair of equal symbols on a board of face-down cards in as few moves as possible.

GAME MECHANICS:
• Each symbol appears on exactly two cards; the board is shuffled at the start of every game
• Turn over one card, then a second one. Two cards make one move
• Equal symbols stay face up for the rest of the game (a matched pair)
• Different symbols stay visible briefly, then flip face down again
• While a mismatched pair is showing, the board is locked and selections are ignored
• The game ends when every pair is matched; the completion message shows the move count

BOARD LEGEND (game_state):
?? : face-down card
[X]: face-up card of the current move
 X : matched card

IGNORED SELECTIONS:
A selection is ignored, without costing a move, when the board is locked, the
index is out of range, or the card is already face up or matched.

STRATEGY:
• Remember every symbol you have seen; move_history lists both symbols of every move
• If the first card of a move shows a symbol you have seen before, pick its known partner
• Otherwise turn over an unseen card: you may get lucky, and you learn a new symbol either way
• Never turn over two known non-matching cards; it wastes a move
• The minimum possible is one move per pair; a perfect-memory player needs about 1.6 moves per pair

TOOLS:
• select_pair is the quickest way to play a full move
• select_card lets you look at the first card before choosing the second
• reset_game starts a fresh shuffle; history is kept across games in a session
• leaderboard shows the best finished games per board

Good luck!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// boardColumns lays n cards out as close to a square as possible
func boardColumns(n int) int {
	if n <= 0 {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(n))))
}

func formatCard(card engine.Card) string {
	switch card.Status {
	case engine.Revealed:
		return "[" + card.Symbol + "]"
	case engine.Matched:
		return " " + card.Symbol + " "
	default:
		return "??"
	}
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Moves: %d | Pairs: %d/%d", state.Moves, state.MatchedPairs, state.TotalPairs)
	if left := state.RemainingPairs(); left > 0 && !state.Complete {
		fmt.Fprintf(&b, " (%d left)", left)
	}
	if state.Locked {
		b.WriteString(" | LOCKED (mismatch showing)")
	}
	b.WriteString("\n\n")

	cols := boardColumns(len(state.Cards))
	for i, card := range state.Cards {
		fmt.Fprintf(&b, "%3d:%-5s", card.Index, formatCard(card))
		if (i+1)%cols == 0 || i == len(state.Cards)-1 {
			b.WriteString("\n")
		}
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", state.Message)
	}
	if state.Complete {
		b.WriteString("\n🎉 COMPLETE! Use reset_game to play again.\n")
	}

	return b.String()
}

func cardSymbol(cards []engine.Card, index int) string {
	for _, card := range cards {
		if card.Index == index {
			return card.Symbol
		}
	}
	return "?"
}

func formatSelectResult(result *service.SelectResult) string {
	var b strings.Builder

	switch result.Outcome {
	case engine.OutcomeIgnored:
		fmt.Fprintf(&b, "✗ Selection of card %d ignored: %s\n", result.Index, result.Reason)
	case engine.OutcomeRevealed:
		fmt.Fprintf(&b, "Card %d: %s\n", result.Index, cardSymbol(result.Cards, result.Index))
	case engine.OutcomeMatch:
		fmt.Fprintf(&b, "Card %d: %s\n✓ Match! (%d/%d pairs)\n", result.Index, cardSymbol(result.Cards, result.Index), result.MatchedPairs, result.TotalPairs)
	case engine.OutcomeMismatch:
		fmt.Fprintf(&b, "Card %d: %s\n✗ No match, cards %v flip back\n", result.Index, cardSymbol(result.Cards, result.Index), result.Pair)
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d) - Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		status := "✗"
		if move.Matched {
			status = "✓"
		}
		fmt.Fprintf(&b, "%d. [game %d] %d:%s + %d:%s %s\n",
			move.MoveNumber, move.Generation, move.First, move.FirstSymbol, move.Second, move.SecondSymbol, status)
	}

	if len(history.Moves) == 0 {
		b.WriteString("(no moves yet)\n")
	}
	return b.String()
}

func formatLeaderboard(configName string, results []*service.GameResult) string {
	var b strings.Builder
	if configName == "" {
		configName = "all boards"
	}
	fmt.Fprintf(&b, "Leaderboard (%s):\n\n", configName)

	if len(results) == 0 {
		b.WriteString("(no finished games yet)\n")
		return b.String()
	}

	for _, r := range results {
		fmt.Fprintf(&b, "%d. %d moves, %s (%s, %d pairs, session %s)\n",
			r.Rank, r.Moves, (time.Duration(r.DurationMs) * time.Millisecond).String(), r.ConfigName, r.Pairs, r.SessionID)
	}
	return b.String()
}
