package web_server

import (
	"context"
	"github.com/gorilla/mux"
	"github.com/lefinal/vrcafe-server/booking"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/games"
	"github.com/lefinal/vrcafe-server/identity"
	"github.com/lefinal/vrcafe-server/profile"
	"github.com/lefinal/vrcafe-server/stats"
	"github.com/lefinal/vrcafe-server/ws"
	"github.com/rs/cors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"net/http"
	"time"
)

const (
	// DefaultServeAddr is the default address to serve on.
	DefaultServeAddr = ":8080"
	// DefaultWriteTimeout is the default timeout for writing.
	DefaultWriteTimeout = 15 * time.Second
	// DefaultReadTimeout is the default timeout for reading.
	DefaultReadTimeout = 15 * time.Second
	// shutdownTimeout is the timeout for graceful shutdown.
	shutdownTimeout = 15 * time.Second
)

// Config is the configuration that is used in order to create and run a web
// server.
type Config struct {
	// Address for the web server to listen to.
	ServeAddr string
	// WriteTimeout is the duration to wait until write fails with a timeout.
	WriteTimeout time.Duration
	// ReadTimeout is the duration to wait until read fails with a timeout.
	ReadTimeout time.Duration
}

// GameLookup looks up games by their code.
type GameLookup interface {
	Lookup(ctx context.Context, code string) (games.GameRecord, error)
	Config(ctx context.Context, code string) (games.CompiledConfig, error)
}

// LobbyRegistry opens and lists quick lobbies.
type LobbyRegistry interface {
	OpenLobby(ctx context.Context, captain games.Captain, req games.OpenLobbyRequest) (games.GameRecord, error)
	OpenLobbies(ctx context.Context) ([]games.GameRecord, error)
}

// ProfileOffice manages user profiles.
type ProfileOffice interface {
	Profile(ctx context.Context, userID string) (profile.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update profile.Update) (profile.Profile, error)
	RequireComplete(ctx context.Context, userID string) (profile.Profile, error)
}

// BookingOffice manages bookings.
type BookingOffice interface {
	Book(ctx context.Context, ident identity.Identity, req booking.Request) (booking.Booking, error)
	BookingsForUser(ctx context.Context, userID string) ([]booking.Booking, error)
}

// StatsBoard provides statistics and leaderboards.
type StatsBoard interface {
	PlayerStats(ctx context.Context, userID string) (stats.PlayerStats, error)
	Leaderboard(ctx context.Context, category stats.Category, limit int) ([]stats.LeaderboardEntry, error)
}

// TokenVerifier verifies bearer tokens. identity.Verifier implements it.
type TokenVerifier interface {
	Verify(token string) (identity.Identity, error)
}

// Dependencies are the components that the WebServer serves.
type Dependencies struct {
	Verifier TokenVerifier
	Lookup   GameLookup
	Lobbies  LobbyRegistry
	Profiles ProfileOffice
	Bookings BookingOffice
	Stats    StatsBoard
	// WizardHub is the websocket hub for wizard sessions. If not set, the
	// websocket endpoint is not available.
	WizardHub *ws.Hub
}

// WebServer serves the HTTP API and the websocket endpoint.
type WebServer struct {
	logger     *zap.Logger
	config     Config
	httpServer *http.Server
	router     *mux.Router
	running    *atomic.Bool
	verifier   TokenVerifier
	lookup     GameLookup
	lobbies    LobbyRegistry
	profiles   ProfileOffice
	bookings   BookingOffice
	stats      StatsBoard
	wizardHub  *ws.Hub
	// wsCtx is the context for websocket connections. It is set when running.
	wsCtx context.Context
}

// NewWebServer creates a new WebServer and populates the routes. It expects the
// passed Config to be filled correctly. If you need default values, these are
// exported as DefaultServeAddr, DefaultWriteTimeout and DefaultReadTimeout. Run
// it with WebServer.Run.
func NewWebServer(logger *zap.Logger, config Config, deps Dependencies) (*WebServer, error) {
	if config.ServeAddr == "" {
		return nil, errors.NewInternalError("no serve addr provided in config", nil)
	}
	server := &WebServer{
		logger:    logger,
		config:    config,
		router:    mux.NewRouter(),
		running:   atomic.NewBool(false),
		verifier:  deps.Verifier,
		lookup:    deps.Lookup,
		lobbies:   deps.Lobbies,
		profiles:  deps.Profiles,
		bookings:  deps.Bookings,
		stats:     deps.Stats,
		wizardHub: deps.WizardHub,
		wsCtx:     context.Background(),
	}
	// Enable logging.
	server.router.Use(loggingMiddleware(logger))
	// Disable caching.
	server.router.Use(noCacheMiddleware)
	// Setup not found handler.
	server.router.NotFoundHandler = noCacheMiddleware(loggingMiddleware(logger)(http.NotFoundHandler()))
	server.populateRoutes()
	// Enable CORS.
	handler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(server.router)
	server.httpServer = &http.Server{
		Handler:      handler,
		Addr:         config.ServeAddr,
		WriteTimeout: config.WriteTimeout,
		ReadTimeout:  config.ReadTimeout,
	}
	return server, nil
}

// Handler returns the http.Handler with all routes and CORS.
func (server *WebServer) Handler() http.Handler {
	return server.httpServer.Handler
}

// Run starts the web server and serves until the given context is done.
func (server *WebServer) Run(ctx context.Context) error {
	// Check if already running.
	if !server.running.CompareAndSwap(false, true) {
		return errors.NewInternalError("web server already running", nil)
	}
	defer server.running.Store(false)
	server.wsCtx = ctx
	listenErr := make(chan error, 1)
	// Start web server.
	go func() {
		server.logger.Info("web server running", zap.String("addr", server.config.ServeAddr))
		err := server.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			listenErr <- errors.Error{
				Code:    errors.ErrFatal,
				Kind:    errors.KindUnexpected,
				Err:     err,
				Message: "listen and serve",
				Details: errors.Details{"addr": server.config.ServeAddr},
			}
		}
		close(listenErr)
	}()
	// Wait for stop command.
	select {
	case <-ctx.Done():
	case err, ok := <-listenErr:
		if ok {
			return err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := server.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return errors.NewInternalErrorFromErr(err, "shutdown web server", nil)
	}
	return nil
}
