package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hession/slotmate/internal/cli"
	"github.com/hession/slotmate/internal/config"
	"github.com/hession/slotmate/internal/mcpserver"
	"github.com/hession/slotmate/internal/server"
	"github.com/hession/slotmate/internal/stream"
	"github.com/hession/slotmate/internal/tools"
)

var (
	version = "0.1.0"
)

// exitError carries a process exit code without printing another message
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if ee, ok := err.(exitError); ok {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configDir string
		verbose   bool
	)

	rootCmd := &cobra.Command{
		Use:   "slotmate",
		Short: "slotmate - Plasmic slot replacement tool",
		Long: `slotmate replaces the content of a named slot in a Plasmic component and
returns the rendered HTML from the Plasmic Codegen API.

It can run as:
  • a one-shot command (slotmate replace)
  • an HTTP tool host with SSE streaming (slotmate serve)
  • an MCP server over stdio (slotmate mcp)
  • an interactive console (slotmate shell)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configDir != "" {
				config.SetConfigDir(configDir)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ./config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Also write logs to stderr")

	newApp := func() (*app, error) {
		return setup(verbose)
	}

	rootCmd.AddCommand(
		newReplaceCmd(newApp),
		newServeCmd(newApp),
		newMCPCmd(newApp),
		newShellCmd(newApp),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newReplaceCmd(newApp func() (*app, error)) *cobra.Command {
	var (
		mode           string
		noHydrate      bool
		noEmbedHydrate bool
		jsonOutput     bool
	)

	cmd := &cobra.Command{
		Use:   "replace <component> <slot> <content>",
		Short: "Render a component with one slot replaced",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			sink := cli.NewConsoleSink(out)
			if jsonOutput {
				sink = stream.NewJSONLinesSink(out)
			}

			res, err := a.registry.Execute(ctx, tools.ReplaceSlotContentName, map[string]any{
				"component":    args[0],
				"slot":         args[1],
				"content":      args[2],
				"mode":         mode,
				"hydrate":      !noHydrate,
				"embedHydrate": !noEmbedHydrate,
			}, sink)
			if err != nil {
				return err
			}

			if jsonOutput {
				fmt.Fprintln(out, res.Text())
			} else {
				cli.PrintResult(out, res)
			}
			if !res.OK() {
				return exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "preview", "Content version to render: preview or published")
	cmd.Flags().BoolVar(&noHydrate, "no-hydrate", false, "Omit hydration markup")
	cmd.Flags().BoolVar(&noEmbedHydrate, "no-embed-hydrate", false, "Do not embed the hydration script")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print events and the result as JSON lines")
	return cmd
}

func newServeCmd(newApp func() (*app, error)) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tools over HTTP with SSE streaming",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(a.registry, a.metrics, a.log)
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return fmt.Errorf("HTTP server failed: %w", err)
			}
			a.log.Info("HTTP server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func newMCPCmd(newApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol server over stdio",
		Long: `Starts slotmate as an MCP server on standard input/output.
Stream events are forwarded to the client as notifications/message.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			srv := mcpserver.New(a.registry, "slotmate", version, a.log)
			a.log.Info("starting MCP server (stdio) for project %s", a.cfg.Plasmic.ProjectID)
			if err := srv.ServeStdio(); err != nil {
				return fmt.Errorf("MCP server failed: %w", err)
			}
			return nil
		},
	}
}

func newShellCmd(newApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive console",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			return cli.Run(context.Background(), a.registry, a.cfg)
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.String())

			path, _ := config.ConfigPath()
			fmt.Fprintf(cmd.OutOrStdout(), "\nConfig file path: %s\n", path)
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists: %s", path)
			}
			if err := config.Save(config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	configCmd.AddCommand(initCmd)
	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "slotmate v%s\n", version)
		},
	}
}
