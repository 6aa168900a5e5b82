package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grid-harness/core/cluster"
	"grid-harness/core/logging"
	"grid-harness/core/transport"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"grid-harness/api/rest/routes"
)

// Standalone node agent for remote hosts: listens on NODE_LISTEN, joins the
// cluster at SEED_ADDR, and speaks TLS when TLS_CONFIG names a config file.
func main() {
	logger := logging.New(nil)
	defer logger.Sync()

	listen := getEnv("NODE_LISTEN", ":7070")
	seed := os.Getenv("SEED_ADDR")

	mode, ref := transport.Resolve(os.Getenv("TLS_CONFIG"))
	tr, err := transport.New(mode, ref)
	if err != nil {
		logger.Fatal("failed to build transport", zap.Error(err))
	}

	node := cluster.NewNode(tr, logger)
	if err := node.Listen(listen); err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	r := mux.NewRouter()
	routes.SetupRoutes(r, node)
	node.Serve(r)
	logger.Info("node agent up",
		zap.String("node", node.Info().ID),
		zap.String("addr", node.Info().Addr),
		zap.Bool("tls", tr.TLSActive()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if seed != "" && seed != node.Info().Addr {
		node.Join(ctx, seed, time.Second)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down node agent")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := node.Stop(shutdownCtx); err != nil {
		logger.Error("node agent forced to stop", zap.Error(err))
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
