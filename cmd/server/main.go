package main

import (
	"flag"
	"os"
	"path"

	log "github.com/sirupsen/logrus"

	"github.com/thinkgate-dev/thinkgate/internal/cmd"
	"github.com/thinkgate-dev/thinkgate/internal/config"
	"github.com/thinkgate-dev/thinkgate/internal/logging"
	"github.com/thinkgate-dev/thinkgate/internal/util"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Configure File Path")
	flag.Parse()

	logging.SetupBaseLogger()

	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("failed to get working directory: %v", err)
		}
		configPath = path.Join(wd, "config.yaml")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	util.SetLogLevel(cfg)

	cmd.StartService(cfg, configPath)
}
