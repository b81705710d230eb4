// ABOUTME: Mask command for masking a single value with a pattern
// ABOUTME: Accepts a custom pattern or the name of a predefined one

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hikmaai-io/hikmaai-censor/internal/censor"
)

func newMaskCmd(opts *globalOptions) *cobra.Command {
	var (
		pattern string
		builtin string
		char    string
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "mask VALUE",
		Short: "Mask a single value",
		Long: `Mask VALUE by overwriting every capture group of the mask pattern.

The pattern is either given with --pattern or selected by name with
--builtin (see "hikmaai-censor patterns"). When the pattern does not
compile, does not match, or has no capture groups, MASKING_ERROR is
printed instead; --strict turns that into a non-zero exit.

Examples:
  hikmaai-censor mask 123-45-6789 --builtin ssn
  hikmaai-censor mask john@example.com --builtin email --char '*'
  hikmaai-censor mask secret-code --pattern '^(\w+)-'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			p, err := censor.ResolvePattern(pattern, builtin)
			if err != nil {
				return err
			}

			maskChar, err := maskingCharacter(cfg)
			if err != nil {
				return err
			}
			if char != "" {
				if maskChar, err = censor.ParseMaskingCharacter(char); err != nil {
					return err
				}
			}

			logger := newLogger(cfg, nil, cmd.ErrOrStderr())
			c := censor.New(
				censor.WithMaskingCharacter(maskChar),
				censor.WithLogger(logger),
			)

			res := c.Process(args[0], p)
			if strict && res.Status == censor.StatusError {
				return fmt.Errorf("masking failed: %w", res.Err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "mask pattern (regular expression with capture groups)")
	cmd.Flags().StringVarP(&builtin, "builtin", "b", "", "name of a predefined pattern")
	cmd.Flags().StringVar(&char, "char", "", "masking character (default from config, X)")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero instead of printing MASKING_ERROR")
	cmd.MarkFlagsMutuallyExclusive("pattern", "builtin")

	return cmd
}
