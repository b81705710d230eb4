// ABOUTME: Patterns and fields commands for inspecting masking rules
// ABOUTME: Lists predefined patterns and the fields registered by a schema

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
)

func newPatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List predefined mask patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPATTERN\tDESCRIPTION")
			for _, b := range censor.Builtins() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.Name, b.Pattern, b.Description)
			}
			return w.Flush()
		},
	}
}

func newFieldsCmd(opts *globalOptions) *cobra.Command {
	var schemaFile string

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the fields registered by a schema",
		Long: `Load a field schema, validate it, and list every registered field
with its type, mask pattern and masking character.`,
		Args: cobra.NoArgs,
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

			char, err := maskingCharacter(cfg)
			if err != nil {
				return err
			}
			reg, err := loadRegistry(schemaFile, char, nil, newLogger(cfg, nil, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FIELD\tTYPE\tCHAR\tPATTERN")
			for _, s := range reg.Strategies() {
				kind := s.Type()
				if kind == "" {
					kind = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%c\t%s\n", s.Field(), kind, s.MaskingCharacter(), s.Pattern())
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&schemaFile, "schema", "s", "", "field schema file (YAML or TOML)")

	return cmd
}
