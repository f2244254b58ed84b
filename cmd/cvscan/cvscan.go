package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/coreos/go-systemd/daemon"
	"github.com/cyclopcam/logs"
	"github.com/joho/godotenv"

	"github.com/tseten14/cvscan/server"
)

func main() {
	// A .env file is convenient at dev time for the service URLs
	godotenv.Load()

	// This is purely for documentation of the cmd-line args
	nominalDefaultDB := "$HOME/cvscan/runs.sqlite"

	parser := argparse.NewParser("cvscan", "Facade detection dashboard server")
	dbFile := parser.String("c", "db", &argparse.Options{Help: "Run history database file", Default: nominalDefaultDB})
	port := parser.String("p", "port", &argparse.Options{Help: "HTTP listen port", Default: ":8080"})
	backendURL := parser.String("b", "backend", &argparse.Options{Help: "Detection backend base URL", Default: os.Getenv("CVSCAN_BACKEND_URL")})
	imageryURL := parser.String("", "imagery", &argparse.Options{Help: "Facade imagery service base URL", Default: os.Getenv("CVSCAN_IMAGERY_URL")})
	geocodeURL := parser.String("", "geocode", &argparse.Options{Help: "Geocoding service base URL", Default: os.Getenv("CVSCAN_GEOCODE_URL")})
	backendTimeout := parser.Int("", "timeout", &argparse.Options{Help: "Backend call timeout in seconds (0 for the default)", Default: 0})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if *dbFile == nominalDefaultDB {
		home, _ := os.UserHomeDir()
		if home == "" {
			home = "/var/lib"
		}
		*dbFile = filepath.Join(home, "cvscan", "runs.sqlite")
	}

	srv, err := server.NewServer(logger, server.Config{
		RunsDBPath:     *dbFile,
		BackendURL:     *backendURL,
		ImageryBaseURL: *imageryURL,
		GeocodeBaseURL: *geocodeURL,
		BackendTimeout: time.Duration(*backendTimeout) * time.Second,
	})
	if err != nil {
		logger.Errorf("Failed to start server: %v", err)
		os.Exit(1)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Infof("Received signal %v", sig)
		srv.Shutdown()
	}()

	daemon.SdNotify(false, daemon.SdNotifyReady)
	if err := srv.ListenHTTP(*port); err != nil {
		logger.Errorf("ListenHTTP returned: %v", err)
		os.Exit(1)
	}
}
