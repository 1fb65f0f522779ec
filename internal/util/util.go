// Package util holds small helpers shared across the gateway.
package util

import (
	log "github.com/sirupsen/logrus"

	"github.com/thinkgate-dev/thinkgate/internal/config"
)

// SetLogLevel applies the configured verbosity to the global logger.
func SetLogLevel(cfg *config.Config) {
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
