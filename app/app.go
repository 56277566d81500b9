package app

import (
	"context"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lefinal/vrcafe-server/booking"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/gamecache"
	"github.com/lefinal/vrcafe-server/games"
	"github.com/lefinal/vrcafe-server/identity"
	"github.com/lefinal/vrcafe-server/logging"
	"github.com/lefinal/vrcafe-server/portal"
	"github.com/lefinal/vrcafe-server/profile"
	"github.com/lefinal/vrcafe-server/stats"
	"github.com/lefinal/vrcafe-server/store"
	"github.com/lefinal/vrcafe-server/ws"
	"go.uber.org/zap"
	"time"
)

// App is a complete VR café server instance.
type App struct {
	// config is the main config used for the App.
	config Config
}

// NewApp creates a new App with the given Config. Boot it with App.Boot.
func NewApp(config Config) *App {
	return &App{
		config: config,
	}
}

// components holds all long-living components. They are created once at boot
// and passed to whoever needs them.
type components struct {
	mall     *store.Mall
	verifier *identity.Verifier
	registry *games.Registry
	lookup   *games.Lookup
	profiles *profile.Office
	bookings *booking.Office
	stats    *stats.Board
	wsHub    *ws.Hub
}

// Boot sets everything up based on the set config and runs until the given
// context is done.
func (app *App) Boot(ctx context.Context) error {
	// Validate config.
	err := ValidateConfig(app.config)
	if err != nil {
		return errors.Error{
			Code:    errors.ErrFatal,
			Err:     err,
			Message: "invalid config",
		}
	}
	// Setup logger.
	logger, publishLog := setupLogging(ctx, app.config.Log)
	defer func() { _ = logger.Sync() }()
	// Boot.
	err = app.boot(ctx, logger, publishLog)
	if err != nil {
		err = errors.Wrap(err, "boot", nil)
		errors.Log(logger, err)
		return err
	}
	return nil
}

func (app *App) boot(ctx context.Context, logger *zap.Logger, publishLog <-chan logging.LogEntry) error {
	logger.Info("booting up")
	// Migrate and connect database.
	logger.Debug("migrating database")
	err := migrateDB(ctx, logger.Named("db"), app.config.DBConn)
	if err != nil {
		return errors.Wrap(err, "migrate database", nil)
	}
	db, err := connectDB(ctx, app.config.DBConn, defaultMaxDBConnections)
	if err != nil {
		return errors.Wrap(err, "connect database", nil)
	}
	defer db.Close()
	logger.Debug("database ready")
	// Create portal base.
	portalBase, err := portal.NewBase(logger.Named("portal"), portal.Config{MQTTAddr: app.config.MQTTAddr})
	if err != nil {
		return errors.Wrap(err, "new portal base", nil)
	}
	// Create lookup cache if configured.
	var lookupCache games.Cache
	if app.config.RedisAddr.Valid && app.config.RedisAddr.String != "" {
		redisClient, err := gamecache.Connect(ctx, gamecache.Config{
			Addr:     app.config.RedisAddr.String,
			Password: app.config.RedisPassword,
			DB:       app.config.RedisDB,
			TTL:      app.config.lookupCacheTTL(),
		})
		if err != nil {
			return errors.Wrap(err, "connect redis", nil)
		}
		defer func(client *redis.Client) { _ = client.Close() }(redisClient)
		lookupCache = gamecache.New(redisClient, app.config.lookupCacheTTL())
		logger.Debug("lookup cache ready")
	}
	// Create components.
	c, err := app.createComponents(logger, db, portalBase, lookupCache)
	if err != nil {
		return errors.Wrap(err, "create components", nil)
	}
	// Create and run services.
	services, err := createServices(serviceDependencies{
		config:       app.config,
		logger:       logger,
		portalBase:   portalBase,
		components:   c,
		logEntriesIn: publishLog,
	})
	if err != nil {
		return errors.Wrap(err, "create services", nil)
	}
	logger.Info("boot completed. running services...")
	err = services.run(ctx, logger.Named("services"))
	logger.Info("shutting down")
	if err != nil {
		return errors.Wrap(err, "run services", nil)
	}
	return nil
}

// createComponents creates all long-living components.
func (app *App) createComponents(logger *zap.Logger, db *pgxpool.Pool, portalBase portal.Base,
	lookupCache games.Cache) (*components, error) {
	location, err := time.LoadLocation(app.config.Location)
	if err != nil {
		return nil, errors.NewInternalErrorFromErr(err, "load location", errors.Details{"location": app.config.Location})
	}
	verifier, err := identity.NewVerifier(app.config.IdentitySecret, app.config.IdentityIssuer)
	if err != nil {
		return nil, errors.Wrap(err, "new identity verifier", nil)
	}
	c := &components{
		mall:     store.NewMall(logger.Named("store"), db),
		verifier: verifier,
	}
	c.registry = games.NewRegistry(logger.Named("registry"), c.mall, portalBase.NewPortal(logger.Named("registry-portal")))
	c.lookup = games.NewLookup(logger.Named("lookup"), c.mall, lookupCache)
	c.profiles = profile.NewOffice(logger.Named("profiles"), c.mall)
	c.bookings = booking.NewOffice(logger.Named("bookings"), c.mall, c.profiles, location)
	c.stats = stats.NewBoard(logger.Named("stats"), c.mall)
	c.wsHub = ws.NewHub(logger.Named("ws"), ws.NewWizardSessions(logger.Named("wizard"), c.registry))
	return c, nil
}
