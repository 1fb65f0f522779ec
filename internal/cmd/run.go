// Package cmd contains the service bootstrap: it starts the API server, the
// config watcher, and handles graceful shutdown on SIGINT/SIGTERM.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/thinkgate-dev/thinkgate/internal/api"
	"github.com/thinkgate-dev/thinkgate/internal/config"
	"github.com/thinkgate-dev/thinkgate/internal/logging"
	"github.com/thinkgate-dev/thinkgate/internal/watcher"
)

const shutdownGracePeriod = 30 * time.Second

// StartService runs the gateway until a shutdown signal arrives.
func StartService(cfg *config.Config, configPath string) {
	if err := logging.ConfigureLogOutput(cfg.LoggingToFile); err != nil {
		log.Fatalf("failed to configure log output: %v", err)
	}

	apiServer := api.NewServer(cfg)

	watchCtx, stopWatcher := context.WithCancel(context.Background())
	defer stopWatcher()
	configWatcher := watcher.New(configPath, apiServer.UpdateConfig)
	if err := configWatcher.Start(watchCtx); err != nil {
		log.Warnf("config watcher unavailable, hot reload disabled: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("API server failed: %v", err)
		}
	case sig := <-sigChan:
		log.Infof("received signal %s, shutting down...", sig)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := apiServer.Stop(ctx); err != nil {
			log.Errorf("error stopping API server: %v", err)
		}
	}
}
