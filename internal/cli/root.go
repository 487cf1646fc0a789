// Package cli implements the jason CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/jason-client/internal/config"
	"github.com/rcliao/jason-client/internal/journal"
	"github.com/rcliao/jason-client/internal/logging"
)

var (
	configPath  string
	formatFlag  string
	journalPath string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "jason",
	Short: "Location-aware client for the jason-brain chat service",
	Long:  "Send chat turns to jason-brain, enriched with the best device location found within a short time budget.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./config.yaml, ./config/config.yaml or ~/.jason/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVarP(&journalPath, "journal", "j", "", "Call journal path (default: journal.path from config; empty disables)")
}

// loadConfig loads and validates configuration and builds the logger.
func loadConfig() (*config.Config, *zap.Logger) {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if err := cfg.Validate(); err != nil {
		exitErr("invalid config", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		exitErr("init logger", err)
	}
	return cfg, logger
}

func getJournalPath(cfg *config.Config) string {
	if journalPath != "" {
		return journalPath
	}
	return cfg.Journal.Path
}

// openJournal returns nil when no journal is configured.
func openJournal(cfg *config.Config) (*journal.Journal, error) {
	path := getJournalPath(cfg)
	if path == "" {
		return nil, nil
	}
	return journal.Open(expandHome(path))
}

func expandHome(path string) string {
	if len(path) > 1 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func printJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
