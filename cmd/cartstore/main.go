package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/cartstore/internal/api"
	"github.com/RoyceAzure/lab/cartstore/internal/api/handler"
	"github.com/RoyceAzure/lab/cartstore/internal/api/router"
	"github.com/RoyceAzure/lab/cartstore/internal/appcontext"
	"github.com/RoyceAzure/lab/cartstore/internal/config"
	"github.com/RoyceAzure/lab/cartstore/internal/logger"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	envFile := flag.String("env", ".env", "path of the .env config file")
	flag.Parse()

	if err := run(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "cartstore: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	loader := config.NewLoader(envFile)
	cf, err := loader.Load()
	if err != nil {
		return err
	}

	// logger 本身不過濾，等級由 global level 控制，方便熱更新
	var extra []io.Writer
	if cf.LogShippingEnabled() {
		kw := logger.NewKafkaWriter(cf.KafkaBrokers, cf.LogKafkaTopic)
		defer kw.Close()
		extra = append(extra, kw)
	}
	log := logger.New("trace", cf.LogPretty, extra...)
	logger.SetGlobalLevel(cf.LogLevel)

	loader.Watch(func(next *config.Config, err error) {
		if err != nil {
			log.Error().Err(err).Msg("config reload failed, keep previous config")
			return
		}
		lv := logger.SetGlobalLevel(next.LogLevel)
		log.Info().Str("log_level", lv.String()).Msg("config reloaded")
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := appcontext.NewApplicationContext(ctx, cf, log)
	if err != nil {
		return err
	}

	server := api.NewServer(
		handler.NewCartHandler(app.Sessions, app.Catalog, log),
		handler.NewProductHandler(app.Catalog, log),
	)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cf.ServerPort),
		Handler:           router.SetupRouter(server, app.Limiter, cf.SessionTTL, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return app.Sessions.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Received shutdown signal")
		return shutdown(srv, app, log)
	})

	return g.Wait()
}

func shutdown(srv *http.Server, app *appcontext.ApplicationContext, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := srv.Shutdown(ctx)
	if err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	app.Shutdown(ctx)
	log.Info().Msg("Server exited")
	return err
}
