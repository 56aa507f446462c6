// Package cmd wires the recollect CLI: session management, codebase
// indexing, and the HTTP/MCP server surfaces over conversation memory.
package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/recollect-ai/recollect/pkg/conversation"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "recollect",
	Short: "Bounded-memory conversation context for LLM assistants",
	Long: `recollect keeps an LLM assistant aware of an effectively unbounded
conversation under a hard token budget: old messages are compressed into
rolling summaries, everything stays searchable through a TF-IDF index, and
full session history persists to JSONL files.

Examples:
  recollect session append --name work --role user --text "we decided on postgres"
  recollect session context --name work --input "which database?"
  recollect index ./src --query "authentication flow"
  recollect serve --addr :8080
  recollect mcp`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.recollect.yaml)")
	rootCmd.PersistentFlags().String("memory-dir", "", "directory for session files (default ~/.recollect/sessions)")
	rootCmd.PersistentFlags().Int("token-budget", 6000, "token budget for the recent window")
	rootCmd.PersistentFlags().Int("keep-recent", 10, "recent messages kept verbatim through compression")
	rootCmd.PersistentFlags().Int("top-k", 3, "recall fan-out for context assembly")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")

	_ = viper.BindPFlag("memory_dir", rootCmd.PersistentFlags().Lookup("memory-dir"))
	_ = viper.BindPFlag("token_budget", rootCmd.PersistentFlags().Lookup("token-budget"))
	_ = viper.BindPFlag("keep_recent", rootCmd.PersistentFlags().Lookup("keep-recent"))
	_ = viper.BindPFlag("top_k", rootCmd.PersistentFlags().Lookup("top-k"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".recollect")
		}
	}

	viper.SetEnvPrefix("RECOLLECT")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()

	setupLogging(viper.GetString("log.level"), viper.GetString("log.format"))
}

// setupLogging configures the global slog logger.
func setupLogging(level, format string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// memoryConfig builds a conversation.Config from viper settings.
func memoryConfig() conversation.Config {
	cfg := conversation.DefaultConfig()
	if v := viper.GetInt("token_budget"); v > 0 {
		cfg.TokenBudget = v
	}
	if v := viper.GetInt("keep_recent"); v > 0 {
		cfg.KeepRecent = v
	}
	if v := viper.GetInt("top_k"); v > 0 {
		cfg.TopK = v
	}
	if dir := viper.GetString("memory_dir"); dir != "" {
		if expanded, err := expandHome(dir); err == nil {
			cfg.MemoryDir = expanded
		}
	}
	return cfg
}

// expandHome resolves a leading ~ in a path.
func expandHome(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}
