package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/internal/app"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/config"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/logger"
)

var version = "dev"

func main() {
	// load .env file if present
	_ = godotenv.Load(".env")

	addr, dbPath, cfgPath, setFlags := config.ParseCommandFlags()

	cfgPath = config.ResolveConfigPath(cfgPath, setFlags["config"])
	cfg, _ := config.LoadEffective(cfgPath)

	// explicit flags win over file and env
	if setFlags["addr"] {
		if h, p, err := net.SplitHostPort(addr); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		}
	}
	if setFlags["db"] {
		cfg.Storage.DBPath = dbPath
	}

	a, err := app.New(cfg, version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Error("server_exited", zap.Error(err))
		os.Exit(1)
	}
}
