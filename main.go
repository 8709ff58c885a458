// Command memorymatch starts the Memory Match Game.
//
// Subcommands:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket push and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" plays one game in the terminal
//  4. "validate" and "analyze" check the configuration files
//
// Flags control host/port, the config and data directories, log level, and
// optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/memory-match-game/api"
	"github.com/wricardo/memory-match-game/game/config"
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/results"
	"github.com/wricardo/memory-match-game/game/service"
	"github.com/wricardo/memory-match-game/game/session"
	"github.com/wricardo/memory-match-game/transport/mcp"
	"github.com/wricardo/memory-match-game/transport/terminal"
	"github.com/wricardo/memory-match-game/transport/websocket"
	"github.com/wricardo/memory-match-game/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Memory Match Game Server"
)

const (
	sessionMaxAge        = 24 * time.Hour
	sessionCleanupPeriod = time.Hour
	filesystemSyncPeriod = 5 * time.Second
)

func main() {
	// Load .env file if it exists so env-sourced flags see it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("exiting")
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "memorymatch",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Value:   "data",
				Usage:   "directory for saved sessions and the results database",
				Sources: cli.EnvVars("DATA_DIR"),
			},
			&cli.StringFlag{
				Name:    "static-dir",
				Value:   "./static/",
				Usage:   "directory served at /",
				Sources: cli.EnvVars("STATIC_DIR"),
			},
			&cli.IntFlag{
				Name:    "shuffle-seed",
				Usage:   "seed every deck shuffle for reproducible boards (0 = random)",
				Sources: cli.EnvVars("SHUFFLE_SEED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "zerolog level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "shorthand for --log-level debug",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "expose the server through an ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd.String("log-level"), cmd.Bool("debug"))
			return ctx, nil
		},
		DefaultCommand: "server",
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Action:  runHTTPServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run an MCP stdio server, starting an internal HTTP API when none is running",
				Action:  runStdioMCPWithInternalServer,
			},
			{
				Name:  "play",
				Usage: "play one game in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "configuration to play (defaults to classic)",
					},
				},
				Action: runPlay,
			},
			{
				Name:   "validate",
				Usage:  "validate every configuration file",
				Action: runValidate,
			},
			{
				Name:  "analyze",
				Usage: "estimate how many moves each configuration takes",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "games", Value: 100, Usage: "simulated games per configuration"},
					&cli.IntFlag{Name: "seed", Value: 1, Usage: "seed of the first simulated shuffle"},
				},
				Action: runAnalyze,
			},
		},
	}
}

// setupLogging configures the global zerolog logger. Logs go to stderr so
// stdout stays free for the MCP stdio protocol.
func setupLogging(level string, debug bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// services holds everything a server process shares between transports
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence *session.FilePersistence
	results     *results.Store
}

// engineOptions turns the global flags into options for every engine
func engineOptions(cmd *cli.Command) []engine.Option {
	seed := cmd.Int("shuffle-seed")
	if seed == 0 {
		return nil
	}
	log.Info().Int64("seed", int64(seed)).Msg("deck shuffles are seeded")
	return []engine.Option{engine.WithRandom(engine.NewSeededRandom(int64(seed)))}
}

// initializeServices wires the config manager, session persistence, session
// manager, results store and the game service. opts apply to every engine,
// including those of reloaded sessions.
func initializeServices(configDir, dataDir string, opts ...engine.Option) (*services, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(filepath.Join(dataDir, "sessions"), configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	sessionManager.SetEngineOptions(opts...)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to load persisted sessions")
	}

	store, err := results.Open(filepath.Join(dataDir, "results.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open results store: %w", err)
	}

	recorded, err := store.Count(context.Background())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to read results store: %w", err)
	}
	log.Info().
		Int("sessions", sessionManager.Count()).
		Int("results", recorded).
		Msg("services initialized")

	return &services{
		game:        service.NewGameServiceWithResults(sessionManager, configManager, store),
		sessions:    sessionManager,
		persistence: persistence,
		results:     store,
	}, nil
}

// Close saves every session and closes the results store
func (s *services) Close() error {
	saveErr := s.sessions.SaveAllSessions()
	closeErr := s.results.Close()
	return errors.Join(saveErr, closeErr)
}

// startBackgroundRoutines prunes stale sessions and sessions whose files were
// deleted until ctx is done.
func (s *services) startBackgroundRoutines(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(2)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, s.sessions, sessionCleanupPeriod)
	}()
	go func() {
		defer wg.Done()
		filesystemSyncRoutine(ctx, s.sessions, s.persistence, filesystemSyncPeriod)
	}()
}

// newHandler builds the API handler backed by a push hub. The hub is bound to
// every session display and answers client actions through the API server.
func newHandler(ctx context.Context, svc *services, staticDir string) *api.Server {
	hub := websocket.NewHub()
	go hub.Run(ctx)

	apiServer := api.NewServerWithStatic(svc.game, hub, staticDir)
	hub.SetHandler(apiServer.HandleClientMessage)
	svc.sessions.SetDisplayFactory(hub.SessionDisplay)

	return apiServer
}

// newMux mounts the API at / and an MCP endpoint proxying to baseURL at /mcp
func newMux(apiHandler http.Handler, baseURL string) *http.ServeMux {
	mcpClient := mcp.NewClient(baseURL)

	mux := http.NewServeMux()
	mux.Handle("/", apiHandler)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Warn().Err(err).Msg("failed to write MCP response")
		}
	})
	return mux
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an
// /mcp proxy endpoint. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cmd *cli.Command) error {
	svc, err := initializeServices(cmd.String("config-dir"), cmd.String("data-dir"), engineOptions(cmd)...)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close services")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	svc.startBackgroundRoutines(ctx, &wg)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	mux := newMux(newHandler(ctx, svc, cmd.String("static-dir")), "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("version", Version).Str("addr", addr).Msg("starting " + AppName)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Msgf("REST API: http://%s/api", addr)
		log.Info().Msgf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, mux, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"))
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case runErr = <-serveErr:
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return runErr
}

// serveNgrok serves handler through an ngrok tunnel until ctx is done
func serveNgrok(ctx context.Context, handler http.Handler, authToken, domain string) {
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info().Msg("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	url := tun.URL()
	log.Info().Str("url", url).Msg("🚀 ngrok tunnel established")
	log.Info().Msgf("  Game UI (ngrok): %s/", url)
	log.Info().Msgf("  MCP endpoint (ngrok): %s/mcp", url)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within sessionMaxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(sessionMaxAge)
		}
	}
}

// filesystemSyncRoutine removes sessions from memory when their files are deleted
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneDeletedSessions(manager, persistence)
		}
	}
}

func pruneDeletedSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	if persistence == nil {
		return 0
	}

	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			log.Info().Str("session_id", s.ID).Msg("pruned session from memory (file deleted)")
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an API
// already listening on --port; otherwise it starts an internal HTTP API on a
// random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, cmd *cli.Command) error {
	externalURL := fmt.Sprintf("http://localhost:%d", cmd.Int("port"))
	baseURL := externalURL

	log.Info().Str("url", externalURL).Msg("checking for external API server")
	if !apiAvailable(ctx, externalURL) {
		svc, err := initializeServices(cmd.String("config-dir"), cmd.String("data-dir"), engineOptions(cmd)...)
		if err != nil {
			return err
		}
		defer func() {
			if err := svc.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close services")
			}
		}()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		var wg sync.WaitGroup
		defer wg.Wait()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		svc.startBackgroundRoutines(ctx, &wg)

		baseURL = "http://" + listener.Addr().String()
		httpServer := &http.Server{Handler: newHandler(ctx, svc, cmd.String("static-dir"))}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		log.Info().Str("url", baseURL).Msg("MCP stdio server ready (using internal HTTP server)")
	} else {
		log.Info().Str("url", baseURL).Msg("MCP stdio server ready (using external HTTP server)")
	}

	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a memory game server answers at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	configManager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}

	gameConfig := configManager.GetDefault()
	if name := cmd.String("config"); name != "" {
		if gameConfig, err = configManager.LoadConfig(name); err != nil {
			return err
		}
	}

	display := terminal.NewDisplay(os.Stdout)
	display.ClearScreen = true

	eng, err := engine.NewEngine(gameConfig, append(engineOptions(cmd), engine.WithDisplay(display))...)
	if err != nil {
		return err
	}

	err = terminal.Run(ctx, eng, os.Stdin)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("config-dir")
	fmt.Printf("Validating configuration files in %s...\n", dir)

	results, err := validate.Dir(dir)
	if err != nil {
		return err
	}
	if !validate.Report(os.Stdout, results) {
		return cli.Exit("", 1)
	}
	return nil
}

func runAnalyze(ctx context.Context, cmd *cli.Command) error {
	analyses, err := validate.AnalyzeDir(cmd.String("config-dir"), int(cmd.Int("games")), int64(cmd.Int("seed")))
	if err != nil {
		return err
	}
	validate.WriteAnalyses(os.Stdout, analyses)
	return nil
}
