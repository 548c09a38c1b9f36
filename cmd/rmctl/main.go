package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alexanderramin/retention/internal/cli"
	"github.com/alexanderramin/retention/internal/cli/formatter"
	"github.com/alexanderramin/retention/internal/config"
	"github.com/alexanderramin/retention/internal/db"
	"github.com/alexanderramin/retention/internal/metrics"
	"github.com/alexanderramin/retention/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	uow := db.NewRetryingUnitOfWork(db.NewSQLiteUnitOfWork(database), cfg.TxAttempts)

	opts := service.Options{MandatoryProperties: cfg.MandatoryProperties}
	if cfg.IdentifierMode == config.IdentifierUUID {
		opts.Identifiers = service.UUIDIdentifiers{}
	}
	var reg *prometheus.Registry
	if cfg.Metrics {
		reg = prometheus.NewRegistry()
		opts.Metrics = metrics.New(reg)
	}
	var observers []service.UseCaseObserver
	if cfg.LogUseCases {
		observers = append(observers, service.NewLogUseCaseObserver(os.Stderr))
	}
	eng := service.NewEngine(uow, opts, observers...)

	app := &cli.App{
		FilePlans:   service.NewFilePlanService(eng),
		Schedules:   service.NewScheduleService(eng),
		Disposition: service.NewDispositionService(eng),
		Holds:       service.NewHoldService(eng),
		Vital:       service.NewVitalRecordService(eng),
		Import:      service.NewImportService(eng),
	}

	formatter.ConfigureColor(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Execute root command
	execErr := cli.NewRootCmd(app).ExecuteContext(ctx)
	if reg != nil {
		if err := dumpMetrics(os.Stderr, reg); err != nil && execErr == nil {
			execErr = err
		}
	}
	return execErr
}

// dumpMetrics writes the collected metrics in the Prometheus text format.
func dumpMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}
