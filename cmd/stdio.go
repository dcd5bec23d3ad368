package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/vpsbridge/vpsbridge/internal/config"
	"github.com/vpsbridge/vpsbridge/internal/db"
	"github.com/vpsbridge/vpsbridge/internal/migrations"
	"github.com/vpsbridge/vpsbridge/internal/provider"
	"github.com/vpsbridge/vpsbridge/internal/service/bridge"
	"github.com/vpsbridge/vpsbridge/internal/service/calllog"
	"github.com/vpsbridge/vpsbridge/internal/service/provision"
	"github.com/vpsbridge/vpsbridge/internal/service/registry"
	"github.com/vpsbridge/vpsbridge/pkg/version"
	"go.uber.org/zap"
)

var stdioCmdConfigFile string

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve tool calls over stdin/stdout",
	Long: "Runs the bridge as a line-delimited JSON-RPC server on stdin/stdout.\n" +
		"This is the transport MCP clients use when they spawn the bridge as a subprocess.\n" +
		"All logging goes to stderr so stdout carries only protocol responses.",
	RunE: runStdio,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "2",
	},
}

func init() {
	stdioCmd.Flags().StringVarP(
		&stdioCmdConfigFile,
		"conf",
		"c",
		"vpsbridge.yaml",
		"Path to the server configuration file",
	)
	rootCmd.AddCommand(stdioCmd)
}

func runStdio(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(afero.NewOsFs(), stdioCmdConfigFile)
	if err != nil {
		return err
	}

	// zap's production logger writes to stderr, keeping stdout clean for
	// protocol responses.
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	dbConn, err := db.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := migrations.Migrate(dbConn); err != nil {
		return fmt.Errorf("failed to run migrations: %v", err)
	}

	providerClient, err := provider.NewClient(&provider.Config{
		BaseURL:           cfg.Provider.BaseURL,
		Token:             cfg.Provider.Token,
		RequestTimeout:    time.Duration(cfg.Provider.RequestTimeoutSec) * time.Second,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
	})
	if err != nil {
		return fmt.Errorf("failed to create provider client: %v", err)
	}

	provisionService := provision.NewService(providerClient, logger)

	toolRegistry, err := registry.NewRegistry(providerClient, provisionService)
	if err != nil {
		return fmt.Errorf("failed to build tool registry: %v", err)
	}

	callLogService := calllog.NewService(dbConn)
	dispatcher := bridge.NewDispatcher(toolRegistry, callLogService, nil, logger)

	b := bridge.NewBridge(dispatcher, bridge.ServerInfo{
		Name:    "vpsbridge",
		Version: version.GetVersion(),
	}, logger)

	return b.Serve(cmd.Context(), os.Stdin, os.Stdout)
}
