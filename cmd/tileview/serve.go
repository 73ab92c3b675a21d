package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tileview/internal/cache"
	"tileview/internal/config"
	"tileview/internal/decode"
	"tileview/internal/decode/vipsdecode"
	"tileview/internal/fetch"
	httphandlers "tileview/internal/http"
	"tileview/internal/inventory"
	"tileview/internal/tiles"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve tiles over HTTP, fetching missing ones in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer log.Sync()

			return serve(cmd.Context(), cfg, log)
		},
	}
}

func newFetcher(cfg *config.Config) *fetch.HTTPFetcher {
	return fetch.NewHTTPFetcher(fetch.FetcherOptions{
		UserAgent:      cfg.UserAgent,
		ConnectTimeout: cfg.ConnectTimeout,
		Timeout:        cfg.FetchTimeout,
	})
}

func newDecoder(cfg *config.Config, log *zap.Logger) (tiles.Decoder[*decode.Tile], func()) {
	if cfg.Decoder != config.DecoderVips {
		return decode.Raw{}, func() {}
	}

	vipsdecode.Start(vipsdecode.Config{
		MaxCacheMB:  cfg.VipsMaxCacheMB,
		Concurrency: cfg.VipsConcurrency,
	}, log)
	return vipsdecode.Decoder{}, vipsdecode.Shutdown
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting tileview server",
		zap.Int("port", cfg.Port),
		zap.String("cache_root", cfg.CacheRoot),
		zap.String("cache", cfg.CacheType),
		zap.String("decoder", cfg.Decoder),
	)

	store, err := cache.NewDiskStore(cfg.CacheRoot)
	if err != nil {
		return err
	}

	scanner := inventory.New(cfg.CacheRoot, log.Named("inventory"))
	if removed, err := scanner.CleanupTempFiles(); err != nil {
		log.Warn("Initial cache scan failed", zap.Error(err))
	} else if removed > 0 {
		log.Info("Removed partial downloads", zap.Int("count", removed))
	}

	memory, err := cache.NewCache[*decode.Tile](cfg.CacheType, cfg.CacheMemoryTiles, nil, log)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	decoder, shutdownDecoder := newDecoder(cfg, log)
	defer shutdownDecoder()

	svc := tiles.New(tiles.Options[*decode.Tile]{
		Store:      store,
		Memory:     memory,
		Decoder:    decoder,
		Downloader: newFetcher(cfg),
		Logger:     log.Named("tiles"),
	})
	svc.Start()
	defer svc.Close()

	handlers := httphandlers.New(cfg, log, svc, scanner)
	mux := http.NewServeMux()
	handlers.NewAPI(mux)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handlers.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server started", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
			return err
		}
		return nil
	})

	err = g.Wait()
	log.Info("Server stopped")
	return err
}
