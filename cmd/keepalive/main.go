package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"liuproxy_keepalive/internal/app"
	"liuproxy_keepalive/internal/shared/config"
	"liuproxy_keepalive/internal/shared/logger"
	"liuproxy_keepalive/internal/shared/types"
)

func main() {
	var (
		configDir = pflag.String("configdir", "configs", "Path to config directory")
		skipFetch = pflag.Bool("skip-fetch", false, "Use the stored proxy pool instead of fetching source_url at startup")
		logLevel  = pflag.String("log-level", "", "Override [log] level (debug, info, warn, error)")
	)
	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	iniPath := filepath.Join(*configDir, "keepalive.ini")

	// 1. 加载 .ini 配置
	cfg := types.DefaultConfig()
	if err := config.LoadIni(cfg, iniPath); err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", iniPath, err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogConf.Level = *logLevel
	}

	// 1.1 初始化日志系统
	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// 2. 运营者标识
	userID, err := config.LoadUserID(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("No user ID found; set [common] user_id, user_id_file or USER_ID")
	}

	// 3. 创建并运行
	server, err := app.New(cfg, userID)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, !*skipFetch); err != nil {
		logger.Error().Err(err).Msg("Exiting.")
		stop()
		os.Exit(1)
	}
}
