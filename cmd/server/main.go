package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tradehook/api"
	"tradehook/internal/config"
	"tradehook/pkg/binance"
	"tradehook/pkg/broker"
	"tradehook/pkg/flattrade"
)

var (
	cfgFile string
	logger  *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tradehook",
		Short: "Webhook bridge from trading alerts to brokerage orders",
		Long:  `Receives TradingView-style alert webhooks and places market orders against Binance spot or Flattrade`,
		Run:   runServer,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) {
	// Initialize logger
	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load local .env before resolving configuration
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment from .env")
	}

	// Load configuration
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Set log level
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Error("Invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Initialize broker clients. A missing Binance credential pair leaves
	// the adapter uninitialized; it reports errors instead of placing orders.
	var spotClient binance.SpotAPI
	if cfg.Binance.APIKey != "" && cfg.Binance.APISecret != "" {
		spotClient = binance.NewClient(cfg.Binance.APIKey, cfg.Binance.APISecret, cfg.Binance.Testnet)
		logger.WithField("testnet", cfg.Binance.Testnet).Info("Binance client initialized")
	} else {
		logger.Warn("Binance credentials missing, client not initialized")
	}

	binanceAdapter := binance.NewAdapter(spotClient, logger)
	flattradeClient := flattrade.NewClient(cfg.Flattrade.APIKey, cfg.Flattrade.APISecret, cfg.Flattrade.UserID, logger)
	if !flattradeClient.Configured() {
		logger.Warn("Flattrade credentials missing, orders will be rejected")
	}

	orderRouter := broker.NewRouter(binanceAdapter, flattradeClient, logger)

	server := api.NewServer(orderRouter, api.HealthStatus{
		BinanceInitialized:  binanceAdapter.Initialized(),
		FlattradeConfigured: flattradeClient.Configured(),
	}, logger, strconv.Itoa(cfg.Server.Port))

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received shutdown signal")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
