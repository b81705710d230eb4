// ABOUTME: Censor command for masking registered fields of a JSON document
// ABOUTME: Reads a file or stdin and optionally records the result in the journal

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
	"github.com/hikmaai-io/hikmaai-censor/internal/engine"
)

func newCensorCmd(opts *globalOptions) *cobra.Command {
	var (
		schemaFile string
		indent     bool
		record     bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "censor [FILE|-]",
		Short: "Censor a JSON document",
		Long: `Censor a JSON document read from FILE, or from stdin when FILE is "-"
or omitted. Every string at a path registered in the schema is masked
with that field's pattern. Key order and unregistered values are kept.

With --record the censored document is stored in the journal.

Examples:
  hikmaai-censor censor order.json --schema schema.yaml
  cat order.json | hikmaai-censor censor --schema schema.toml --indent`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if schemaFile == "" {
				schemaFile = cfg.SchemaFile
			}
			if schemaFile == "" {
				return fmt.Errorf("no schema given; use --schema or schema_file in the config")
			}

			doc, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			char, err := maskingCharacter(cfg)
			if err != nil {
				return err
			}

			bootstrap := newLogger(cfg, nil, cmd.ErrOrStderr())
			cache := censor.NewPatternCache()
			reg, err := loadRegistry(schemaFile, char, cache, bootstrap)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, reg, cmd.ErrOrStderr())

			engCfg := engine.Config{
				Registry:         reg,
				Logger:           logger,
				PatternCache:     cache,
				MaskingCharacter: char,
			}
			if record {
				store, err := openJournal(cfg)
				if err != nil {
					return err
				}
				engCfg.Journal = store
			}

			eng, err := engine.New(engCfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			out, err := eng.CensorDocument(cmd.Context(), source, doc)
			if err != nil {
				return fmt.Errorf("censoring document: %w", err)
			}

			result := []byte(out.Document)
			if indent {
				var buf bytes.Buffer
				if err := json.Indent(&buf, result, "", "  "); err != nil {
					return err
				}
				result = buf.Bytes()
			}

			w := cmd.OutOrStdout()
			if _, err := w.Write(result); err != nil {
				return err
			}
			fmt.Fprintln(w)

			if out.RecordID != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "recorded %s\n", out.RecordID)
			}
			if out.Report.Failed > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d field(s) could not be masked\n", out.Report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&schemaFile, "schema", "s", "", "field schema file (YAML or TOML)")
	cmd.Flags().BoolVar(&indent, "indent", false, "indent the output")
	cmd.Flags().BoolVar(&record, "record", false, "store the censored document in the journal")
	cmd.Flags().StringVar(&source, "source", "cli", "source label for metrics and the journal")

	return cmd
}

// readInput reads the single FILE argument, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return data, nil
}
