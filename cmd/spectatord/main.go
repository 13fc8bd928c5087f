// Command spectatord is a daemon that listens for metrics over UDP, a Unix
// domain socket, and statsd, aggregates them in-process, and periodically
// reports them to Atlas.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix-Skunkworks/spectatord/internal/admin"
	"github.com/Netflix-Skunkworks/spectatord/internal/config"
	"github.com/Netflix-Skunkworks/spectatord/internal/ingest"
	"github.com/Netflix-Skunkworks/spectatord/internal/procstat"
	"github.com/Netflix-Skunkworks/spectatord/pkg/log"
	"github.com/Netflix-Skunkworks/spectatord/pkg/publisher"
	"github.com/Netflix-Skunkworks/spectatord/pkg/spectator"
)

var configFile = flag.String("config", "", "Optional path to a JSON config file layered under CLI flags.")

func main() {
	if err := run(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()

	flags, err := config.ParseFlags(flag.CommandLine, cfg, os.Args[1:])
	if err != nil {
		return err
	}

	if *configFile != "" {
		if err := config.LoadFile(*configFile, cfg); err != nil {
			return err
		}
	}
	if err := flags.Apply(cfg); err != nil {
		return err
	}

	if cfg.Verbose {
		log.SetLogLevel("debug")
	} else {
		log.SetLogLevel("info")
	}

	registry := spectator.NewRegistry(spectator.RegistryConfig{
		MeterTTL:      cfg.MeterTTL,
		GaugeTTL:      cfg.GaugeTTL,
		AgeGaugeLimit: cfg.AgeGaugeLimit,
		CommonTags:    cfg.CommonTags,
	})

	pub, err := publisher.New(publisher.Config{
		URI:            cfg.URI,
		Frequency:      cfg.Frequency,
		BatchSize:      cfg.BatchSize,
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		ProcessName:    cfg.ProcessName,
	}, registry)
	if err != nil {
		return fmt.Errorf("building publisher: %w", err)
	}
	if err := pub.Start(); err != nil {
		return fmt.Errorf("starting publisher: %w", err)
	}
	defer pub.Stop()

	parser := ingest.NewParser(registry)

	upkeep, err := ingest.NewUpkeep(ingest.UpkeepConfig{
		UDPPort:     cfg.Port,
		LastSuccess: pub.LastSuccess,
	}, registry, parser)
	if err != nil {
		return fmt.Errorf("building upkeep: %w", err)
	}
	if err := upkeep.Start(); err != nil {
		return fmt.Errorf("starting upkeep: %w", err)
	}
	defer upkeep.Stop()

	rcvBufSize := procstat.MaxBufferSize("/proc/sys/net/core/rmem_max")

	udpServer, err := ingest.NewUDPServer("udp server", cfg.Port, false, rcvBufSize, parser.ParseNativeBatch)
	if err != nil {
		return fmt.Errorf("starting udp server on port %d: %w", cfg.Port, err)
	}
	go udpServer.Serve()
	defer udpServer.Close()
	log.Infof("listening for metrics on udp port %d", cfg.Port)

	var statsdServer *ingest.UDPServer
	if cfg.EnableStatsd {
		statsdServer, err = ingest.NewUDPServer("statsd server", cfg.StatsdPort, false, rcvBufSize, parser.ParseStatsdBatch)
		if err != nil {
			return fmt.Errorf("starting statsd server on port %d: %w", cfg.StatsdPort, err)
		}
		go statsdServer.Serve()
		defer statsdServer.Close()
		log.Infof("listening for statsd metrics on udp port %d", cfg.StatsdPort)
	}

	var udsServer *ingest.UDSServer
	if cfg.EnableSocket {
		ingest.PrepareSocketPath(cfg.SocketPath)
		udsServer, err = ingest.NewUDSServer(cfg.SocketPath, parser.ParseNativeBatch)
		if err != nil {
			return fmt.Errorf("starting unix socket server at %s: %w", cfg.SocketPath, err)
		}
		go udsServer.Serve()
		defer udsServer.Close()
		log.Infof("listening for metrics on unix socket %s", cfg.SocketPath)
	}

	adminAddr := fmt.Sprintf("localhost:%d", cfg.AdminPort)
	adminServer := admin.New(adminAddr, registry, cfg)
	if err := adminServer.Start(); err != nil {
		return fmt.Errorf("starting admin server on %s: %w", adminAddr, err)
	}
	defer adminServer.Stop()
	log.Infof("starting admin server on port %d/tcp", cfg.AdminPort)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	s := <-sig
	log.Infof("received signal %v, shutting down", s)
	return nil
}
