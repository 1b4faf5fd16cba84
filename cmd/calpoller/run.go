// cmd/calpoller/run.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tamzrod/calpoller/internal/api"
	"github.com/tamzrod/calpoller/internal/bus"
	"github.com/tamzrod/calpoller/internal/device"
	"github.com/tamzrod/calpoller/internal/journal"
	"github.com/tamzrod/calpoller/internal/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll every configured device and serve the HTTP API",
	RunE:  runPoller,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPoller(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	c := cfg.CalPoller

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Metrics
	// --------------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pub, err := metrics.NewPublisher(reg)
	if err != nil {
		return err
	}

	// --------------------
	// Journal (optional)
	// --------------------

	var (
		rec       device.Recorder
		events    api.EventSource
		journalWG sync.WaitGroup
	)
	journalCtx, stopJournal := context.WithCancel(context.Background())

	if c.Journal != "" {
		j, err := journal.Open(c.Journal, log.Logger.With().Str("component", "journal").Logger())
		if err != nil {
			stopJournal()
			return err
		}
		defer j.Close()

		rec, events = j, j
		journalWG.Add(1)
		go func() {
			defer journalWG.Done()
			j.Run(journalCtx)
		}()
	}
	// Runs before j.Close: the writer drains its queue first.
	defer func() {
		stopJournal()
		journalWG.Wait()
	}()

	// --------------------
	// Lines + devices
	// --------------------

	pool := bus.NewPool(log.Logger)
	defer pool.Close()

	devices, err := device.Build(cfg, pool, pub, rec, log.Logger)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	apiDevices := make([]api.Device, 0, len(devices))
	for _, d := range devices {
		apiDevices = append(apiDevices, d)
		wg.Add(1)
		go func(d *device.Device) {
			defer wg.Done()
			d.Run(ctx)
		}(d)
	}

	// --------------------
	// HTTP
	// --------------------

	srv := &http.Server{
		Addr:              c.Listen,
		Handler:           api.New(apiDevices, events, reg, log.Logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("listen", c.Listen).Int("devices", len(devices)).Msg("calpoller started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}

	// In-flight ticks finish before the journal drains.
	wg.Wait()
	return nil
}
