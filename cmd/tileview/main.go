package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tileview/internal/config"
	"tileview/internal/logger"
	"tileview/internal/tile"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "tileview",
		Short:         "Slippy map tile cache and API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default $TILEVIEW_CONFIG)")

	load := func() (*config.Config, *zap.Logger, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		log, err := logger.New(cfg.LogLevel, cfg.LogEncoding)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return cfg, log, nil
	}

	root.AddCommand(
		serveCmd(load),
		pathCmd(load),
		urlCmd(),
		fetchCmd(load),
		statsCmd(load),
		cleanCmd(load),
		openapiCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type loader func() (*config.Config, *zap.Logger, error)

// parseKey reads "provider z x y" arguments.
func parseKey(args []string) (tile.Key, error) {
	p, err := tile.ProviderByName(args[0])
	if err != nil {
		return tile.Key{}, err
	}

	var coords [3]int
	for i, name := range []string{"z", "x", "y"} {
		v, err := strconv.Atoi(args[i+1])
		if err != nil {
			return tile.Key{}, fmt.Errorf("invalid %s %q: %w", name, args[i+1], err)
		}
		coords[i] = v
	}

	key := tile.Key{Provider: p.ID, Zoom: coords[0], X: coords[1], Y: coords[2]}
	if !key.Valid() {
		return tile.Key{}, fmt.Errorf("tile %s is out of range", key)
	}
	return key, nil
}
