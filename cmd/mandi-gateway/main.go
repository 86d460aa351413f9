// ABOUTME: Entry point for the mandi-gateway marketplace server
// ABOUTME: Subcommands: serve, init, token, health

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/taazamandi/mandi-gateway/internal/advisor"
	"github.com/taazamandi/mandi-gateway/internal/auth"
	"github.com/taazamandi/mandi-gateway/internal/blob"
	"github.com/taazamandi/mandi-gateway/internal/config"
	"github.com/taazamandi/mandi-gateway/internal/session"
	"github.com/taazamandi/mandi-gateway/internal/store"
	"github.com/taazamandi/mandi-gateway/internal/web"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                                                     _ _
| |_ __ _  __ _ ______ _   _ __ ___   __ _ _ __   __| (_)
| __/ _' |/ _' |_  / _' | | '_ ' _ \ / _' | '_ \ / _' | |
| || (_| | (_| |/ / (_| | | | | | | | (_| | | | | (_| | |
 \__\__,_|\__,_/___\__,_| |_| |_| |_|\__,_|_| |_|\__,_|_|
`

// sweepInterval is how often expired session rows are purged.
const sweepInterval = time.Hour

// getConfigPath returns the path to the gateway config file.
// Priority: MANDI_CONFIG env var > XDG_CONFIG_HOME/taazamandi/gateway.yaml > ~/.config/taazamandi/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("MANDI_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "taazamandi", "gateway.yaml")
}

func main() {
	// Local .env files supply ${VAR} values the config file expands
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println("Usage: mandi-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                      Start the marketplace server")
		fmt.Println("  init                       Create a new config file with a random secret")
		fmt.Println("  token --subject ID --email ADDR  Mint a development login token")
		fmt.Println("  health                     Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "token":
		err = runToken()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)
	color.New(color.FgGreen, color.Bold).Print(banner)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green.Print("    ▶ ")
	fmt.Printf("Config:  %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:    %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("DB:      %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Uploads: %s\n", cfg.Storage.Dir)
	fmt.Println()

	logger.Info("starting mandi-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	var authOpts []auth.Option
	if cfg.Auth.VerifyAudience {
		authOpts = append(authOpts, auth.WithAudience(cfg.Auth.Audience))
	}
	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret), authOpts...)
	if err != nil {
		return fmt.Errorf("creating token verifier: %w", err)
	}

	// A missing or broken model is a degraded mode, not a startup failure:
	// predictions return 503 until the operator deploys one.
	var model advisor.Classifier
	if cfg.Advisor.ModelDir != "" {
		forest, err := advisor.LoadForest(cfg.Advisor.ModelDir)
		if err != nil {
			logger.Warn("crop model not loaded, predictor disabled",
				"model_dir", cfg.Advisor.ModelDir, "error", err)
		} else {
			model = forest
			logger.Info("crop model loaded", "model_dir", cfg.Advisor.ModelDir)
		}
	}

	blobs, err := blob.NewLocalStore(cfg.Storage.Dir, cfg.Storage.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}

	srv, err := web.New(st, session.NewManager(st), verifier, advisor.New(model), blobs)
	if err != nil {
		return fmt.Errorf("creating web server: %w", err)
	}

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Storage.Dir))))

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweepExpiredSessions(ctx, st, logger)
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	wg.Wait()
	return nil
}

// sweepExpiredSessions purges expired session rows on a timer until ctx ends.
func sweepExpiredSessions(ctx context.Context, st store.Store, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := st.DeleteExpiredSessions(ctx); err != nil {
				logger.Error("session sweep failed", "error", err)
			}
		}
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	// Handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// runInit writes a starter config file with a freshly generated JWT secret.
func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists: %s", configPath)
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("generating JWT secret: %w", err)
	}
	jwtSecret := base64.StdEncoding.EncodeToString(secretBytes)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configContent := fmt.Sprintf(`# mandi-gateway configuration
# Generated by mandi-gateway init

server:
  http_addr: "localhost:8080"

database:
  path: "data/mandi.db"

auth:
  jwt_secret: "%s"

storage:
  dir: "data/uploads"
  public_base_url: "/uploads"

advisor:
  model_dir: "model"

logging:
  level: "info"
  format: "text"
`, jwtSecret)

	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	color.New(color.FgGreen).Printf("  ✓ Created config: %s\n", configPath)
	return nil
}

// runToken mints a development login token signed with the configured secret.
// Supports both "--flag value" and "--flag=value" formats.
func runToken() error {
	subject := "dev-user"
	email := "dev@example.com"
	ttl := 24 * time.Hour

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		var name, value string
		if eq := strings.IndexByte(arg, '='); eq >= 0 {
			name, value = arg[:eq], arg[eq+1:]
		} else {
			name = arg
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", arg)
			}
			i++
			value = args[i]
		}
		switch name {
		case "--subject":
			subject = value
		case "--email":
			email = value
		case "--ttl":
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("parsing --ttl: %w", err)
			}
			ttl = d
		default:
			return fmt.Errorf("unknown flag: %s", name)
		}
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return fmt.Errorf("creating verifier: %w", err)
	}

	token, err := verifier.Generate(subject, email, ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(token)
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
