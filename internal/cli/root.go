package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/nerdneilsfield/chatdoc/internal/config"
	"github.com/nerdneilsfield/chatdoc/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app 子命令共享的状态
type app struct {
	cfgFile string
	debug   bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "chatdoc",
		Short: "Export chat transcripts as documents and retranslate DOCX files",
		Long: `chatdoc turns chat transcripts (JSON or YAML) into branded DOCX, PDF or
markdown documents, and translates existing DOCX files in place while keeping
their layout, styles, headers and footnotes.

Supported translation providers:
  - deepl:  DeepL API
  - openai: OpenAI compatible chat completion endpoints
  - raw:    no translation, rewrites the package unchanged`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is $HOME/.chatdoc.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newExportCommand(a),
		newTranslateCommand(a),
		newInspectCommand(),
		newValidateCommand(),
		newProvidersCommand(a),
		newInitCommand(),
		newVersionCommand(version, commit, buildDate),
	)

	return rootCmd
}

func (a *app) setup() error {
	cfg, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Debug = true
	}
	a.cfg = cfg
	a.logger = logger.NewConsoleLogger(cfg.Debug)
	if cfg.File != "" {
		a.logger.Debug("loaded config", zap.String("file", cfg.File))
	}
	return nil
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file",
		Args:  cobra.MaximumNArgs(1),
		// no config needed to create one
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "config written")
			return nil
		},
	}
}

func newVersionCommand(version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatdoc %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}

func success(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgGreen, color.Bold).Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", args...)
}

func warn(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgYellow, color.Bold).Fprint(w, "! ")
	fmt.Fprintf(w, format+"\n", args...)
}

// Fail 以统一格式输出错误
func Fail(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "✗ ")
	fmt.Fprintln(w, err)
}
