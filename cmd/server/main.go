package main

import (
	"fmt"
	"os"

	"github.com/dailyfocus/internal/config"
	"github.com/dailyfocus/internal/db"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "dailyfocus",
	Short: "Personal goals, habits and daily tasks tracker",
	Long: `dailyfocus serves the tracker HTTP API backed by a local SQLite file.

Examples:
  dailyfocus                                   # same as "serve"
  dailyfocus serve
  dailyfocus init-user --username me --password secret
  dailyfocus scan-due --date 2024-01-08`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (defaults to ./.env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initUserCmd)
	rootCmd.AddCommand(scanDueCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

// bootstrap 读取配置、初始化日志与数据库，供各子命令共用
func bootstrap() (config.AppConfig, error) {
	if envFile != "" {
		config.LoadEnv(envFile)
	} else {
		config.LoadEnv()
	}

	cfg := config.Load()
	config.InitLogger(cfg.LogLevel)

	if err := db.Init(cfg.DatabasePath); err != nil {
		return cfg, fmt.Errorf("initialize database: %w", err)
	}
	return cfg, nil
}
