package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"techdebt_export/internal/adapters/notion"
	"techdebt_export/internal/adapters/report"
	"techdebt_export/internal/config"
	"techdebt_export/internal/metrics"
	"techdebt_export/internal/repository/runs"
	"techdebt_export/internal/services/exporter"
	"techdebt_export/internal/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "techdebt-export"

type app struct {
	cfg      *config.Config
	conns    *config.Connections
	svc      *exporter.Service
	registry *prometheus.Registry
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := tracing.Init(ctx, serviceName, cfg.OTLPEndpoint, cfg.OTLPInsecure); err != nil {
		log.Printf("[TRACE][WARN] tracing disabled: %v", err)
	}

	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conns, err := config.Connect(setupCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[APP] connected driver=%s table=%s journal=%t report=%t",
		cfg.DB.Driver, cfg.DB.Table, conns.Mongo != nil, conns.S3 != nil)

	pub, err := notion.NewClient(cfg.Notion, nil)
	if err != nil {
		conns.Close(ctx)
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := exporter.NewService(conns.Store, pub, cfg.DB.Table)
	svc.Metrics = metrics.New(reg)
	if conns.Mongo != nil {
		svc.Journal = runs.NewJournal(conns.Mongo)
	}
	if conns.S3 != nil {
		svc.Reports = report.NewS3Sink(conns.S3.Client, conns.S3.Bucket, cfg.ReportPrefix)
	}

	return &app{cfg: cfg, conns: conns, svc: svc, registry: reg}, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.conns.Close(ctx)
	tracing.Shutdown(ctx)
}
