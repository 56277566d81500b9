package app

import (
	"context"
	"fmt"
	"github.com/lefinal/vrcafe-server/debugstatssvc"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/gamesvc"
	"github.com/lefinal/vrcafe-server/logging"
	"github.com/lefinal/vrcafe-server/logpublishsvc"
	"github.com/lefinal/vrcafe-server/maintenancesvc"
	"github.com/lefinal/vrcafe-server/portal"
	"github.com/lefinal/vrcafe-server/service"
	"github.com/lefinal/vrcafe-server/web_server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"time"
)

type services map[string]service.Service

// portalService keeps the MQTT connection of a portal.Base open.
type portalService struct {
	base portal.Base
}

func (s portalService) Run(ctx context.Context) error {
	return s.base.Open(ctx)
}

// serviceDependencies holds everything that services are created from.
type serviceDependencies struct {
	config       Config
	logger       *zap.Logger
	portalBase   portal.Base
	components   *components
	logEntriesIn <-chan logging.LogEntry
}

func createServices(deps serviceDependencies) (services, error) {
	services := make(services)
	c := deps.components
	// Portal.
	services["portal"] = portalService{base: deps.portalBase}
	// Websocket hub.
	services["ws-hub"] = c.wsHub
	// Debug stats service.
	services["debug-stats"] = debugstatssvc.NewService(deps.logger.Named("debug-stats"), debugstatssvc.Config{
		IsEnabled: deps.config.Log.SystemDebugStatsInterval > 0,
		Interval:  time.Duration(deps.config.Log.SystemDebugStatsInterval) * time.Minute,
	}, c.mall, c.wsHub)
	// Maintenance service.
	services["maintenance"] = maintenancesvc.NewService(deps.logger.Named("maintenance"),
		deps.config.maintenanceConfig(), c.bookings, c.mall)
	// Game service.
	services["games"] = gamesvc.NewGameService(deps.logger.Named("games"),
		deps.portalBase.NewPortal(deps.logger.Named("games-portal")), c.lookup, c.stats)
	// Log publishing service.
	services["log-publish"] = logpublishsvc.New(deps.logger.Named("log-publish").With(logging.NoPublish),
		deps.portalBase.NewPortal(deps.logger.Named("log-publish-portal").With(logging.NoPublish)), deps.logEntriesIn)
	// Web server.
	webServer, err := web_server.NewWebServer(deps.logger.Named("web-server"), web_server.Config{
		ServeAddr:    deps.config.ServeAddr,
		WriteTimeout: web_server.DefaultWriteTimeout,
		ReadTimeout:  web_server.DefaultReadTimeout,
	}, web_server.Dependencies{
		Verifier:  c.verifier,
		Lookup:    c.lookup,
		Lobbies:   c.registry,
		Profiles:  c.profiles,
		Bookings:  c.bookings,
		Stats:     c.stats,
		WizardHub: c.wsHub,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new web server", nil)
	}
	services["web-server"] = webServer
	return services, nil
}

func (s services) run(ctx context.Context, logger *zap.Logger) error {
	wg, lifetime := errgroup.WithContext(ctx)
	// Run each.
	for name, serviceToRun := range s {
		// Copy values.
		name, serviceToRun := name, serviceToRun
		wg.Go(func() error {
			logger.Debug(fmt.Sprintf("service %s up", name))
			defer logger.Debug(fmt.Sprintf("service %s down", name))
			if err := serviceToRun.Run(lifetime); err != nil {
				return errors.Wrap(err, "run service", errors.Details{"service_name": name})
			}
			return nil
		})
	}
	return wg.Wait()
}
