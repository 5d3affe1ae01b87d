package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/jwafle/pubtail/internal/app"
	"github.com/jwafle/pubtail/internal/config"
)

const (
	defaultServeAddr = "127.0.0.1:8088"
	fallbackWidth    = 80
)

// newRootCmd builds the command tree over v so tests can use a fresh viper.
func newRootCmd(v *viper.Viper) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "pubtail",
		Short:         "Watch a pub/sub feed in the terminal",
		Long:          `pubtail connects to a websocket feed, keeps the latest message per topic and renders it with a visualizer chosen by the message's type.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(v, cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if !isTerminal(out) {
				return a.RunDump(cmd.Context(), out, terminalWidth(out), 0)
			}
			return a.RunTUI(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/pubtail/config.yaml)")
	flags.StringP("endpoint", "e", "", "websocket endpoint")
	flags.String("log-file", "", "write logs to this file")
	flags.StringP("log-level", "l", "", "log level (debug, info, warn, error, off)")
	flags.Int("max-topics", 0, "topics kept before the least recently updated is dropped")
	root.Flags().String("web-addr", "", "also serve the web mirror on this address")

	_ = v.BindPFlag("endpoint", flags.Lookup("endpoint"))
	_ = v.BindPFlag("log.file", flags.Lookup("log-file"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("view.max_topics", flags.Lookup("max-topics"))
	_ = v.BindPFlag("web.addr", root.Flags().Lookup("web-addr"))

	root.AddCommand(newDumpCmd(v, &cfgFile), newServeCmd(v, &cfgFile))
	return root
}

func newDumpCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	var width, count int
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print each message as plain text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(v, *cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if width <= 0 {
				width = terminalWidth(out)
			}
			return a.RunDump(cmd.Context(), out, width, count)
		},
	}
	cmd.Flags().IntVarP(&width, "width", "w", 0, "render width (default: terminal width or 80)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many messages")
	return cmd
}

func newServeCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web mirror without a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(v, *cfgFile)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") || cfg.Web.Addr == "" {
				cfg.Web.Addr = addr
			}
			if cmd.Flags().Changed("width") {
				cfg.Web.Width, _ = cmd.Flags().GetInt("width")
			}

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RunServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", defaultServeAddr, "listen address")
	cmd.Flags().Int("width", 0, "default render width")
	return cmd
}

func load(v *viper.Viper, cfgFile string) (config.Config, error) {
	return config.Load(v, cfgFile)
}

func open(v *viper.Viper, cfgFile string) (*app.App, error) {
	cfg, err := load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return fallbackWidth
}
