package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/bcnelson/qr-template-studio/internal/tlv"
	"github.com/spf13/cobra"
)

func tlvCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tlv [payload|-]",
		Short: "Show a payload as a TLV tree",
		Long: heredoc.Doc(`
			Show a JSON payload as a tree of numbered tag-length-value nodes.

			Input that is not a JSON object or list is shown as an example
			EMV-style tree instead.
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			res := tlv.Parse(raw)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			if res.Fallback {
				fmt.Fprintln(cmd.ErrOrStderr(), "Input is not a JSON object; showing example TLV structure.")
			}
			return tlv.Write(cmd.OutOrStdout(), res.Nodes)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	return cmd
}
