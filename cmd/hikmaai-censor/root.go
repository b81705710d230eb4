// ABOUTME: Root command for hikmaai-censor CLI
// ABOUTME: Sets up global flags, configuration loading, logging and subcommands

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
	"github.com/hikmaai-io/hikmaai-censor/internal/config"
	"github.com/hikmaai-io/hikmaai-censor/internal/observability"
	"github.com/hikmaai-io/hikmaai-censor/internal/schema"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "hikmaai-censor",
		Short: "HikmaCensor - Pattern-driven masking of sensitive values",
		Long: `HikmaCensor masks sensitive values (passwords, emails, phone numbers,
credit cards, SSNs) by overwriting the regular-expression capture groups
of a mask pattern with a masking character.

Documents are censored against a field schema that maps JSON paths to
mask patterns. A pattern that does not fit a value yields MASKING_ERROR
instead of leaking the value.

Supports one-shot CLI masking, and a daemon serving an HTTP API and NATS
request/reply with an optional journal of censored documents.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", ".env file loaded before the config")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, text)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newMaskCmd(opts))
	cmd.AddCommand(newCensorCmd(opts))
	cmd.AddCommand(newPatternsCmd())
	cmd.AddCommand(newFieldsCmd(opts))
	cmd.AddCommand(newRecordsCmd(opts))
	cmd.AddCommand(newDaemonCmd(opts))
	cmd.AddCommand(newSendCmd(opts))

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hikmaai-censor version %s\n", version)
			fmt.Fprintf(out, "  Git SHA:    %s\n", gitSHA)
			fmt.Fprintf(out, "  Build Time: %s\n", buildTime)
		},
	}
}

// loadConfig resolves configuration from the env file, the config file,
// CENSOR_* variables and finally the global flags.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.envFile != "" {
		config.LoadEnvFile(o.envFile, nil)
	}

	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	return cfg, nil
}

// newLogger builds the process logger. Attributes matching a registered
// field are masked by the registry before they are written.
func newLogger(cfg *config.Config, reg *schema.Registry, w io.Writer) *slog.Logger {
	var masker observability.FieldMasker
	if reg != nil {
		masker = reg
	}
	return observability.NewLogger(observability.LoggingConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "hikmaai-censor",
		Version:     version,
		Redactor:    observability.NewRedactor(masker),
	}, w)
}

// maskingCharacter returns the configured default masking character.
func maskingCharacter(cfg *config.Config) (rune, error) {
	char, err := censor.ParseMaskingCharacter(cfg.MaskingCharacter)
	if err != nil {
		return 0, fmt.Errorf("masking_character: %w", err)
	}
	return char, nil
}

// loadRegistry builds the field registry from the schema file at path.
// An empty path yields an empty registry.
func loadRegistry(path string, char rune, cache *censor.PatternCache, logger *slog.Logger) (*schema.Registry, error) {
	b := schema.NewBuilder(
		schema.WithDefaultCharacter(char),
		schema.WithPatternCache(cache),
		schema.WithLogger(logger),
	)
	if path != "" {
		doc, err := schema.LoadFile(path)
		if err != nil {
			return nil, err
		}
		b.AddDocument(doc)
	}
	reg, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("building field registry: %w", err)
	}
	return reg, nil
}
