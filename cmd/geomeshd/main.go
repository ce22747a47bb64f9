// Command geomeshd runs one geomesh node: it loads configuration, bootstraps
// discovery against the configured seeds, and serves the node operation
// surface over the length-prefixed TCP transport.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/user/geomesh/config"
	"github.com/user/geomesh/dispatch"
	"github.com/user/geomesh/logging"
	"github.com/user/geomesh/node"
	"github.com/user/geomesh/seeds"
	"github.com/user/geomesh/spatialdb"
	"github.com/user/geomesh/spatialdb/postgres"
	"github.com/user/geomesh/transport"
)

func main() {
	configPath := flag.String("config", "geomeshd.yaml", "path to the node's configuration file")
	postgresDSN := flag.String("postgres-dsn", "", "optional Postgres connection string for durable node storage")
	flag.Parse()

	log := logging.New("geomeshd")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration: %v", err)
		os.Exit(1)
	}

	db, err := buildSpatialDatabase(cfg, *postgresDSN)
	if err != nil {
		log.Error("failed to initialize spatial database: %v", err)
		os.Exit(1)
	}

	factory := node.NewTcpConnectionFactory(transport.DefaultTimeout)
	n, err := node.New(cfg.SelfNodeInfo(), db, factory, seeds.Default, false)
	if err != nil {
		log.Error("failed to bootstrap node: %v", err)
		os.Exit(1)
	}

	serverDispatcher := dispatch.NewServerDispatcher(n)
	server, err := transport.NewServer(cfg.NodeId, cfg.ListenAddr(), serverDispatcher.Dispatch)
	if err != nil {
		log.Error("failed to bind listener: %v", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		log.Info("shutdown requested, closing listener")
		server.Shutdown()
	}()

	log.Info("serving node %s on %s", cfg.NodeId, server.Addr())
	if err := server.Serve(ctx); err != nil {
		log.Error("server stopped: %v", err)
		os.Exit(1)
	}
}

func buildSpatialDatabase(cfg *config.Config, postgresDSN string) (*spatialdb.SpatialDatabase, error) {
	self := cfg.SelfNodeInfo().Location

	if postgresDSN == "" {
		return spatialdb.New(self), nil
	}

	store, err := postgres.Open(postgresDSN)
	if err != nil {
		return nil, err
	}
	return spatialdb.NewWithStore(self, store), nil
}
