// Package cmd holds the CLI entry points.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emberhollow/arcanum/internal/config"
	"github.com/emberhollow/arcanum/internal/log"
	"github.com/emberhollow/arcanum/internal/plugin"
)

var (
	version = "dev"

	dataDir      string
	debug        bool
	noAutoReload bool
)

var rootCmd = &cobra.Command{
	Use:     "arcanum",
	Short:   "Arcanum plugin configuration server",
	Long:    `Runs the Arcanum config manager: loads the plugin's config documents, keeps the item and research registry in sync, and reloads on file changes.`,
	Version: version,
	RunE:    run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "arcanum",
		"data directory holding config.yml, items.yml and researches.yml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging")
	rootCmd.Flags().BoolVar(&noAutoReload, "no-auto-reload", false,
		"disable automatic reload when config files change")

	rootCmd.AddCommand(validateCmd)
}

func initLogging() (func(), error) {
	cleanup, err := log.Init(filepath.Join(dataDir, "arcanum.log"))
	if err != nil {
		return nil, fmt.Errorf("initializing log file: %w", err)
	}
	if !debug && os.Getenv("ARCANUM_DEBUG") == "" {
		log.SetMinLevel(log.LevelInfo)
	}
	return cleanup, nil
}

func run(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := plugin.New(plugin.Options{
		DataDir:    dataDir,
		AutoReload: !noAutoReload,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Start(ctx); err != nil {
		_ = p.Stop(context.Background())
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "arcanum running, data dir %s (ctrl-c to stop)\n", dataDir)
	<-ctx.Done()

	return p.Stop(context.Background())
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse the config documents and report errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := false
		for _, name := range []string{
			config.PluginConfigFile,
			config.ItemsConfigFile,
			config.ResearchesConfigFile,
		} {
			path := filepath.Join(dataDir, name)
			doc := config.NewDocument(name, path)
			if err := doc.Load(); err != nil {
				failed = true
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK   %s\n", path)
		}
		if failed {
			return fmt.Errorf("one or more config documents failed to parse")
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
