package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"tileview/internal/cache"
	"tileview/internal/config"
	"tileview/internal/fetch"
	httphandlers "tileview/internal/http"
	"tileview/internal/inventory"
)

const tileArgs = "<provider> <z> <x> <y>"

func pathCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "path " + tileArgs,
		Short: "Print where a tile is stored in the disk cache",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args)
			if err != nil {
				return err
			}
			cfg, _, err := load()
			if err != nil {
				return err
			}
			store, err := cache.NewDiskStore(cfg.CacheRoot)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.PathFor(key))
			return nil
		},
	}
}

func urlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url " + tileArgs,
		Short: "Print the upstream URL a tile is downloaded from",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.Provider.Provider().URL(key))
			return nil
		},
	}
}

func fetchCmd(load loader) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch " + tileArgs,
		Short: "Download one tile into the disk cache",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args)
			if err != nil {
				return err
			}
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := cache.NewDiskStore(cfg.CacheRoot)
			if err != nil {
				return err
			}
			path := store.PathFor(key)
			if store.Exists(key) && !force {
				log.Info("Tile already cached", zap.String("path", path))
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			url := key.Provider.Provider().URL(key)
			if err := store.WriteFromNetwork(cmd.Context(), key, fetch.FetchFunc(newFetcher(cfg), url)); err != nil {
				return err
			}
			log.Info("Tile downloaded", zap.String("tile", key.String()), zap.String("url", url))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "download even when the tile is already cached")
	return cmd
}

func statsCmd(load loader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the disk cache per provider and zoom level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer log.Sync()

			report, err := inventory.New(cfg.CacheRoot, log).Scan()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			enc := yaml.NewEncoder(out)
			defer enc.Close()
			return enc.Encode(report)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")
	return cmd
}

func cleanCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove partial downloads left in the disk cache",
		Long:  "Remove partial downloads left in the disk cache. Do not run it against a cache a server is writing to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer log.Sync()

			removed, err := inventory.New(cfg.CacheRoot, log).CleanupTempFiles()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d temp files\n", removed)
			return nil
		},
	}
}

func openapiCmd() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Export the OpenAPI document (JSON by default, --yaml for YAML)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := httphandlers.New(config.Default(), zap.NewNop(), nil, nil).NewAPI(http.NewServeMux())

			var output []byte
			var err error
			if asYAML {
				output, err = api.OpenAPI().YAML()
			} else {
				output, err = json.MarshalIndent(api.OpenAPI(), "", "  ")
			}
			if err != nil {
				return fmt.Errorf("failed to encode OpenAPI document: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(output)
			return err
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print YAML instead of JSON")
	return cmd
}
