// ABOUTME: Send command for censoring through a running daemon over NATS
// ABOUTME: Sends a document or a single value and prints the JSON reply

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hikmaai-io/hikmaai-censor/internal/queue"
)

func newSendCmd(opts *globalOptions) *cobra.Command {
	var (
		natsURL string
		value   string
		pattern string
		builtin string
		char    string
		source  string
	)

	cmd := &cobra.Command{
		Use:   "send [FILE|-]",
		Short: "Send a censor request to a daemon over NATS",
		Long: `Send a JSON document (FILE, or stdin) or, with --value, a single value
to a running daemon over NATS and print its reply.

Examples:
  hikmaai-censor send order.json --nats-url nats://localhost:4222
  hikmaai-censor send --value 123-45-6789 --builtin ssn`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if natsURL != "" {
				cfg.NATS.URL = natsURL
			}
			if cfg.NATS.URL == "" {
				return errors.New("no NATS URL; use --nats-url or nats.url in the config")
			}

			req := queue.CensorRequest{Source: source}
			if cmd.Flags().Changed("value") {
				req.Value = value
				req.Pattern = pattern
				req.Builtin = builtin
				req.Character = char
			} else {
				doc, err := readInput(cmd, args)
				if err != nil {
					return err
				}
				req.Document = json.RawMessage(doc)
			}

			logger := newLogger(cfg, nil, cmd.ErrOrStderr())
			client := queue.NewClient(natsConfig(cfg), nil, logger)
			if err := client.Connect(cmd.Context()); err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.Request(cmd.Context(), req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
			if resp.Status == queue.StatusError {
				return fmt.Errorf("daemon reported an error: %s", resp.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL")
	cmd.Flags().StringVar(&value, "value", "", "mask a single value instead of a document")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "mask pattern for --value")
	cmd.Flags().StringVarP(&builtin, "builtin", "b", "", "predefined pattern for --value")
	cmd.Flags().StringVar(&char, "char", "", "masking character for --value")
	cmd.Flags().StringVar(&source, "source", "cli", "source label")
	cmd.MarkFlagsMutuallyExclusive("pattern", "builtin")

	return cmd
}
