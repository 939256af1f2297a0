// Command mensch starts the Mensch game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket updates and an /mcp endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Every flag can also be set through the environment or a .env file.
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
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/mensch/api"
	"github.com/wricardo/mcp-training/mensch/game/config"
	"github.com/wricardo/mcp-training/mensch/game/engine"
	"github.com/wricardo/mcp-training/mensch/game/service"
	"github.com/wricardo/mcp-training/mensch/game/session"
	"github.com/wricardo/mcp-training/mensch/transport/mcp"
	"github.com/wricardo/mcp-training/mensch/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Mensch Game Server"
)

// Storage backends for hosted games
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// options is the resolved process configuration.
type options struct {
	Host         string
	Port         int
	ConfigDir    string
	Store        string
	DataDir      string
	DiceSeed     uint64
	SessionTTL   time.Duration
	NgrokEnabled bool
	NgrokAuth    string
	NgrokDomain  string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// services bundles what the transports need and what shutdown must flush.
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
	close       func() error
}

func newCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("MENSCH_HOST")},
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("MENSCH_PORT", "PORT")},
		&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
		&cli.StringFlag{Name: "store", Value: StoreFile, Usage: "Game storage backend (file or sqlite)", Sources: cli.EnvVars("MENSCH_STORE")},
		&cli.StringFlag{Name: "data-dir", Value: "sessions", Usage: "Directory for stored games", Sources: cli.EnvVars("MENSCH_DATA_DIR")},
		&cli.IntFlag{Name: "dice-seed", Usage: "Seed for reproducible dice (0 = random)", Sources: cli.EnvVars("MENSCH_DICE_SEED")},
		&cli.DurationFlag{Name: "session-ttl", Value: 24 * time.Hour, Usage: "Evict games not accessed for this long", Sources: cli.EnvVars("MENSCH_SESSION_TTL")},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("MENSCH_DEBUG")},
		&cli.BoolFlag{Name: "log-json", Usage: "Log as JSON", Sources: cli.EnvVars("MENSCH_LOG_JSON")},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
	}

	serverAction := func(ctx context.Context, cmd *cli.Command) error {
		opts, err := setup(cmd)
		if err != nil {
			return err
		}
		return runHTTPServer(ctx, opts)
	}

	return &cli.Command{
		Name:    "mensch",
		Usage:   "Host Mensch games over REST, WebSocket and MCP",
		Version: Version,
		Flags:   flags,
		Action:  serverAction,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  serverAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := setup(cmd)
					if err != nil {
						return err
					}
					return runStdioMCPWithInternalServer(ctx, opts)
				},
			},
		},
	}
}

// main loads .env and runs the selected command.
func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("error loading .env file")
		}
	} else {
		log.Info("loaded environment variables from .env file")
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.WithError(err).Fatal("mensch failed")
	}
}

// setup configures logging and reads options from the parsed command.
func setup(cmd *cli.Command) (options, error) {
	configureLogging(cmd.Bool("debug"), cmd.Bool("log-json"), cmd.Name == "stdio-mcp")

	opts := options{
		Host:         cmd.String("host"),
		Port:         int(cmd.Int("port")),
		ConfigDir:    cmd.String("config-dir"),
		Store:        cmd.String("store"),
		DataDir:      cmd.String("data-dir"),
		DiceSeed:     uint64(cmd.Int("dice-seed")),
		SessionTTL:   cmd.Duration("session-ttl"),
		NgrokEnabled: cmd.Bool("ngrok"),
		NgrokAuth:    cmd.String("ngrok-auth"),
		NgrokDomain:  cmd.String("ngrok-domain"),
	}
	if err := opts.validate(); err != nil {
		return opts, err
	}

	log.WithFields(log.Fields{
		"version": Version,
		"mode":    cmd.Name,
		"store":   opts.Store,
	}).Infof("starting %s", AppName)
	return opts, nil
}

func (o options) validate() error {
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port: %d", o.Port)
	}
	if o.Store != StoreFile && o.Store != StoreSQLite {
		return fmt.Errorf("unknown store %q, use %s or %s", o.Store, StoreFile, StoreSQLite)
	}
	return nil
}

// configureLogging sets the logrus level and format. In stdio mode stdout
// carries the protocol, so logs go to stderr.
func configureLogging(debug, jsonFormat, stdio bool) {
	if jsonFormat {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	if stdio {
		log.SetOutput(os.Stderr)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(parent context.Context, opts options) error {
	svc, err := initializeServices(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := opts.addr()
	mainRouter := newRouter(api.NewServer(svc.game, hub), mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go sessionCleanupRoutine(ctx, svc.sessions, opts.SessionTTL)
	if opts.Store == StoreFile {
		go filesystemSyncRoutine(ctx, svc.sessions, svc.persistence)
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.WithFields(log.Fields{
			"rest": "http://" + addr + "/api",
			"ws":   "ws://" + addr + "/ws?game=<game_id>",
			"mcp":  "http://" + addr + "/mcp",
		}).Infof("HTTP server listening on %s", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			cancel()
		}
	}()

	if opts.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, mainRouter)
		}()
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()

	if err := svc.sessions.SaveAllSessions(); err != nil {
		log.WithError(err).Warn("failed to save games on shutdown")
	}
	if err := svc.close(); err != nil {
		log.WithError(err).Warn("failed to close storage")
	}
	log.Info("server stopped")

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	default:
		return nil
	}
}

// newRouter mounts the REST API at the root and the MCP JSON-RPC endpoint at /mcp.
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is done.
func runNgrokTunnel(ctx context.Context, opts options, handler http.Handler) {
	if opts.NgrokAuth == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		log.WithField("domain", opts.NgrokDomain).Info("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		log.WithError(err).Error("failed to start ngrok tunnel")
		return
	}

	// Serve returns once the tunnel is closed
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("failed to close ngrok tunnel")
		}
	}()

	log.WithFields(log.Fields{
		"url":  tun.URL(),
		"rest": tun.URL() + "/api",
		"mcp":  tun.URL() + "/mcp",
	}).Info("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.WithError(err).Warn("ngrok server error")
	}
	log.Info("ngrok tunnel closed")
}

// initializeServices wires storage, session/config managers and the game service.
func initializeServices(opts options) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, closeStore, err := openPersistence(opts, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if opts.DiceSeed != 0 {
		sessionManager.SetDiceRollerFactory(seededRollerFactory(opts.DiceSeed))
		log.WithField("seed", opts.DiceSeed).Info("using seeded dice")
	}

	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.WithError(err).Warn("failed to load persisted games")
	}

	return &services{
		game:        service.NewGameService(sessionManager, configManager),
		sessions:    sessionManager,
		persistence: persistence,
		close:       closeStore,
	}, nil
}

// openPersistence creates the storage backend selected by opts.Store.
func openPersistence(opts options, configManager *config.Manager) (session.SessionPersistence, func() error, error) {
	switch opts.Store {
	case StoreSQLite:
		if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		store, err := session.NewSQLitePersistence(filepath.Join(opts.DataDir, "mensch.db"), configManager)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := session.NewFilePersistence(opts.DataDir, configManager)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	}
}

// seededRollerFactory gives every new game its own reproducible dice stream.
func seededRollerFactory(seed uint64) func() engine.DiceRoller {
	var games atomic.Uint64
	return func() engine.DiceRoller {
		return engine.NewSeededRoller(seed + games.Add(1) - 1)
	}
}

// sessionCleanupRoutine periodically removes games that have not been accessed
// within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.WithField("removed", removed).Info("cleaned up expired games")
			}
		}
	}
}

// filesystemSyncRoutine drops games from memory whose files were deleted.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
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
	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			log.WithField("game", s.ID).Info("pruned game from memory (file deleted)")
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API already listening on the configured address; otherwise it
// starts an internal HTTP API on a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, opts options) error {
	externalURL := "http://" + opts.addr()
	baseURL := externalURL

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.WithField("url", externalURL).Info("external API server found, using it for MCP")
	} else {
		log.Info("no external API server found, starting internal HTTP server")

		svc, err := initializeServices(opts)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer func() {
			if err := svc.sessions.SaveAllSessions(); err != nil {
				log.WithError(err).Warn("failed to save games")
			}
			svc.close()
		}()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hubCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		hub := websocket.NewHub()
		go hub.Run(hubCtx)

		httpServer := &http.Server{Handler: api.NewServer(svc.game, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		log.WithField("url", baseURL).Info("internal HTTP server started")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
