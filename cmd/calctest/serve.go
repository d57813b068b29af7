package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thesyncim/calctest/cmd/calctest/server"
)

var serveFlags struct {
	dir  string
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a local calculator checkout",
	Long: `Serves a directory (a checkout of the calculator) over HTTP so that the default
URL http://localhost:8001/calc.html works, plus a probe page at ` + server.ProbePath + `
that carries the same DOM ids for checking browser engines.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.dir, "dir", "", "directory to serve (empty serves only the probe page)")
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", ":8001", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging.Level)

	srvCfg := server.DefaultConfig()
	srvCfg.Addr = serveFlags.addr
	srvCfg.Dir = serveFlags.dir
	srvCfg.Logger = logger

	srv, err := server.NewServer(srvCfg)
	if err != nil {
		return err
	}
	if _, err := srv.Start(); err != nil {
		return err
	}

	logger.Info().Str("url", srv.URL()).Str("dir", serveFlags.dir).Msg("server ready")
	fmt.Fprintf(cmd.OutOrStdout(), "\nServing on %s (probe page: %s%s)\n", srv.URL(), srv.URL(), server.ProbePath)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
