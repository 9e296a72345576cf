// Package servecmder provides the serve command for running the results API.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/echolab/echotext/api"
	"github.com/echolab/echotext/pkg/config"
	"github.com/echolab/echotext/pkg/logger"
	"github.com/echolab/echotext/pkg/runlog/registry"
	vectorutils "github.com/echolab/echotext/pkg/vector/utils"
)

type ServeCommander struct {
	listen     string
	sqlitePath string

	debug     bool
	configDir string
	v         *viper.Viper
	logger    *zap.Logger
}

var serveFlags = config.FlagSet{
	config.FlagAPIListen: {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the results API to listen on"},
	config.FlagSQLite:    {Name: "sqlite", Shorthand: "s", ViperKey: "registry.sqlite_path", Description: "Path to the run registry SQLite database"},
}

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagSQLite,
}

const serveLongDesc string = `Run the results API server.

Serves recorded experiment runs, their reports, and embedding similarity
queries over HTTP:
  GET /ping
  GET /runs
  GET /runs/:id
  GET /runs/:id/report
  GET /similar/:id

Examples:
  echotext serve
  echotext serve --listen :9000`

const serveShortDesc string = "Run the results API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cmder.v, err = config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(cmder.v, cmd, serveFlags, serveFlagKeys)

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	regPath, err := registry.ResolvePath(c.configDir, c.v.GetString("registry.sqlite_path"))
	if err != nil {
		return err
	}
	reg, err := registry.New(regPath, c.logger)
	if err != nil {
		return fmt.Errorf("opening run registry: %w", err)
	}
	defer reg.Close()

	vecPath, err := vectorutils.ResolvePath(c.configDir, "")
	if err != nil {
		return err
	}
	vectors, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
		ProviderType: "sqlite",
		DBPath:       vecPath,
		Dimensions:   c.v.GetUint("embed.size"),
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer vectors.Close()

	listen := c.v.GetString("api.listen")
	server := api.NewServer(api.Config{ListenAddr: listen}, reg, vectors, c.logger)

	c.logger.Info("starting results API server",
		zap.String("listen", listen),
		zap.String("registry", regPath),
		zap.String("vectors", vecPath),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
