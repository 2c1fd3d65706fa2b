package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"orderflow/api/grpcserver"
	"orderflow/api/httpserver"
	"orderflow/api/pb"
	"orderflow/config"
	"orderflow/engine"
	"orderflow/infra/cache"
	"orderflow/infra/feed"
	"orderflow/infra/journal"
	"orderflow/infra/persist"
	"orderflow/ingest"
	"orderflow/jobs/broadcaster"
	"orderflow/logger"
	"orderflow/marketdata"
	"orderflow/metrics"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.Parse()

	// Local overrides; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Log)

	// ---------------- Journal ----------------

	jnl, err := journal.Open(journal.Config{
		Dir:         cfg.Journal.Dir,
		SegmentSize: cfg.Journal.SegmentSize,
	})
	if err != nil {
		log.WithError(err).Fatal("journal init failed")
	}
	defer jnl.Close()

	// ---------------- Store ----------------

	store, err := persist.Open(cfg.Persist.Dir)
	if err != nil {
		log.WithError(err).Fatal("store init failed")
	}
	defer store.Close()

	// ---------------- Engine + collaborators ----------------

	eng := engine.New()

	orderCache, err := cache.New(cfg.Cache.Capacity)
	if err != nil {
		log.WithError(err).Fatal("cache init failed")
	}

	tradeHub := marketdata.NewTradeHub()

	var kafkaFeed *feed.Producer
	if cfg.Kafka.Enabled {
		kafkaFeed = feed.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.FeedTopic)
		defer kafkaFeed.Close()
	}

	collector := metrics.NewCollector()

	var publisher ingest.TradePublisher
	if kafkaFeed != nil {
		publisher = ingest.Fanout(tradeHub, kafkaFeed)
	} else {
		publisher = tradeHub
	}

	svc := ingest.NewService(eng, ingest.Options{
		Journal: jnl,
		Cache:   orderCache,
		Store:   store,
		Feed:    publisher,
		Metrics: collector,
	}, log)

	// ---------------- Replay ----------------

	replayed, err := svc.ReplayJournal(cfg.Journal.Dir)
	if err != nil {
		log.WithError(err).Fatal("journal replay failed")
	}
	log.WithField("records", replayed).Info("book state restored")

	// ---------------- Background jobs ----------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Kafka.Enabled {
		bc, err := broadcaster.New(store, cfg.Kafka.Brokers, cfg.Kafka.TradeTopic, cfg.Kafka.DrainInterval, log)
		if err != nil {
			log.WithError(err).Fatal("broadcaster init failed")
		}
		defer bc.Close()
		go bc.Run(ctx)
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.WithError(err).Fatal("grpc listen failed")
	}

	grpcSrv := grpc.NewServer()
	pb.RegisterOrderFlowServer(grpcSrv, grpcserver.NewServer(svc, eng, log))

	go func() {
		log.WithField("addr", cfg.Server.GRPCAddr).Info("grpc listening")
		if err := grpcSrv.Serve(lis); err != nil {
			log.WithError(err).Error("grpc server exited")
		}
	}()

	// ---------------- HTTP ----------------

	httpSrv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: httpserver.NewServer(svc, eng, orderCache, tradeHub, log).Routes(),
	}
	go func() {
		log.WithField("addr", cfg.Server.HTTPAddr).Info("http listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http server exited")
		}
	}()

	// ---------------- Shutdown ----------------

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	cancel()
	grpcSrv.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := jnl.Sync(); err != nil {
		log.WithError(err).Warn("journal sync")
	}
	log.Info("bye")
}
