package main

import (
	"context"
	"os"

	"github.com/yigit/academia/internal/pkg/logger"
	"github.com/yigit/academia/internal/server"
)

func main() {
	srv, err := server.NewServer(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server stopped with errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
