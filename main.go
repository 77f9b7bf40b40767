// Command tradelink-server starts the trade server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, the
//     authenticated WebSocket endpoint and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server proxying to a running HTTP server
//
// Configuration comes from the environment (optionally via .env); flags
// select the mode and optional ngrok tunneling for external access during
// development.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/tradelink/server/api"
	"github.com/tradelink/server/auth"
	"github.com/tradelink/server/config"
	"github.com/tradelink/server/game/events"
	"github.com/tradelink/server/game/service"
	"github.com/tradelink/server/storage"
	"github.com/tradelink/server/transport/mcp"
	"github.com/tradelink/server/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Tradelink Server"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	cmd := &cli.Command{
		Name:    "tradelink-server",
		Usage:   "real-time trade server: sessions, rooms, friends, gifts and GTS listings",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP server with REST API, WebSocket and MCP endpoint (default)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "ngrok",
						Usage: "expose the server through an ngrok tunnel",
					},
					&cli.StringFlag{
						Name:  "ngrok-domain",
						Usage: "custom ngrok domain (optional)",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					setupLogging(c.Bool("debug"))
					return runServer(ctx, c.Bool("ngrok"), c.String("ngrok-domain"))
				},
			},
			{
				Name:  "mcp",
				Usage: "run an MCP stdio server proxying to a running HTTP server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "target",
						Usage: "base URL of the HTTP server to proxy",
						Value: "http://localhost:8080",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					setupLogging(c.Bool("debug"))
					return runStdioMCP(c.String("target"))
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("%s failed: %v", AppName, err)
	}
}

func setupLogging(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

// runServer wires storage, the trade service and both transports, then
// serves until a shutdown signal arrives.
func runServer(ctx context.Context, ngrokEnabled bool, ngrokDomain string) error {
	cfg := config.Load()
	log.Printf("Starting %s v%s", AppName, Version)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// WebSocket transport. The notifier is created inside the server, so
	// the service gets wired to it after construction.
	wsServer := buildWebSocketServer(cfg, store)
	svc := service.NewTradeService(store, wsServer.Notifier(), cfg.ListingTTL)
	wsServer.SetHandlers(events.Handlers(svc))

	apiServer := api.NewServer(svc, store, wsServer)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	baseURL := fmt.Sprintf("http://%s", addr)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHTTPHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go sweepRoutine(serveCtx, store, cfg)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if ngrokEnabled {
		go runNgrokTunnel(serveCtx, mainRouter, ngrokDomain)
	}

	// First signal starts draining: connected clients get a shutdown
	// notice and a grace window. A second signal closes immediately.
	coordinator := websocket.NewCoordinator(cfg.ShutdownGrace, wsServer.Notifier(), wsServer.CloseAll)

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case err := <-errCh:
			return err
		case sig := <-stop:
			log.Printf("Received signal: %v", sig)
			coordinator.Signal()
		case <-coordinator.Done():
			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}
			log.Println("Server stopped")
			return nil
		}
	}
}

// openStore connects to Postgres when DATABASE_URL is set and falls back
// to the in-memory store otherwise.
func openStore(cfg config.Config) (storage.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Println("[DB] DATABASE_URL not set, using in-memory store")
		return storage.NewMemory(), func() {}, nil
	}

	db, err := storage.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, func() { db.Close() }, nil
}

func buildWebSocketServer(cfg config.Config, store storage.Store) *websocket.Server {
	return websocket.NewServer(websocket.Config{
		Verifier:     auth.NewVerifier(cfg.TokenSecret),
		Presence:     store,
		RoomCapacity: cfg.RoomCapacity,
		RateLimit: websocket.RateLimitConfig{
			Enabled:        cfg.RateLimitEnabled,
			MessagesPerSec: cfg.MessagesPerSec,
			Burst:          cfg.RateLimitBurst,
		},
	})
}

// sweepRoutine periodically withdraws expired listings and prunes old
// claimed gifts.
func sweepRoutine(ctx context.Context, store storage.Store, cfg config.Config) {
	ticker := time.NewTicker(cfg.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if n, err := store.ExpireListings(sweepCtx, time.Now()); err != nil {
				log.Printf("[DB] expiring listings failed: %v", err)
			} else if n > 0 {
				log.Printf("[DB] expired %d listings", n)
			}
			if n, err := store.DeleteClaimedGiftsBefore(sweepCtx, time.Now().Add(-cfg.GiftTTL)); err != nil {
				log.Printf("[DB] pruning claimed gifts failed: %v", err)
			} else if n > 0 {
				log.Printf("[DB] pruned %d claimed gifts", n)
			}
			cancel()
		}
	}
}

// mcpHTTPHandler serves MCP messages over plain HTTP POST.
func mcpHTTPHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runNgrokTunnel exposes the server through an ngrok tunnel for external
// access during development.
func runNgrokTunnel(ctx context.Context, handler http.Handler, domain string) {
	authToken := os.Getenv("NGROK_AUTHTOKEN")
	if authToken == "" {
		log.Println("WARNING: ngrok enabled but NGROK_AUTHTOKEN is not set")
		return
	}

	log.Println("Starting ngrok tunnel...")

	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}
	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}
	defer tun.Close()

	log.Printf("Ngrok tunnel established: %s", tun.URL())

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
}

// runStdioMCP runs an MCP stdio server proxying to a running HTTP server.
func runStdioMCP(target string) error {
	log.Printf("MCP stdio server ready (target: %s)", target)
	client := mcp.NewClient(target)
	return mcpserver.ServeStdio(client.GetMCPServer())
}
