package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/config"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/pay"
)

func main() {
	cliApp := &cli.App{
		Name:  "storefront",
		Usage: "Spirit Hub Cafe storefront API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "reconcile",
				Usage:  "re-check gateway orders that never got a checkout session",
				Flags:  []cli.Flag{limitFlag()},
				Action: reconcile,
			},
			{
				Name:   "replay-webhooks",
				Usage:  "settle journaled webhook events that were never processed",
				Flags:  []cli.Flag{limitFlag()},
				Action: replayWebhooks,
			},
		},
		Action: serve,
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.WithError(err).Fatal("storefront exited")
	}
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{Name: "limit", Value: 100, Usage: "maximum records to process"}
}

func setup(c *cli.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	config.SetupLogging(cfg)
	return buildApp(c.Context, cfg)
}

func serve(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	a.processor.Start(workerCtx)
	defer a.processor.Stop()

	server := &http.Server{
		Addr:              a.cfg.Port,
		Handler:           a.handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", a.cfg.Port).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	}

	log.Info("Shutdown signal received; shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := drain(ctx, server, a.processor); err != nil {
		return err
	}
	log.Info("Server stopped cleanly")
	return nil
}

// drain stops the server first so no handler can submit more webhook work,
// then waits for the queued events. Callers close the backends afterwards.
func drain(ctx context.Context, server interface{ Shutdown(context.Context) error }, workers interface{ Stop() }) error {
	shutdownErr := server.Shutdown(ctx)
	log.Info("Stopping webhook processor")
	workers.Stop()
	if shutdownErr != nil {
		return errors.Wrap(shutdownErr, "graceful shutdown")
	}
	return nil
}

func reconcile(c *cli.Context) error {
	return runSweep(c, "reconcile", (*pay.Processor).SweepOrphans)
}

func replayWebhooks(c *cli.Context) error {
	return runSweep(c, "replay-webhooks", (*pay.Processor).ReplayWebhooks)
}

func runSweep(c *cli.Context, name string, sweep func(*pay.Processor, context.Context, int) (pay.SweepReport, error)) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	report, err := sweep(a.processor, c.Context, c.Int("limit"))
	logger := log.WithFields(log.Fields{
		"job":      name,
		"checked":  report.Checked,
		"resolved": report.Resolved,
		"failed":   report.Failed,
	})
	if err != nil {
		logger.WithError(err).Error("Sweep aborted")
		return err
	}
	logger.Info("Sweep finished")
	return nil
}
