package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/lattice/pkg/encoder"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [file|-]",
		Short: "Print the wire form of a graph document",
		Long:  `Encodes the root expression of a graph document and prints the canonical JSON sent to the evaluation service.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) > 0 {
				path = args[0]
			}
			pretty, _ := cmd.Flags().GetBool("pretty")
			strict, _ := cmd.Flags().GetBool("strict")
			summary, _ := cmd.Flags().GetBool("summary")

			doc, err := readDocument(cmd, path)
			if err != nil {
				return err
			}

			var opts []encoder.Option
			if strict {
				opts = append(opts, encoder.WithStrictVariables())
			}
			enc := encoder.New(opts...)

			var out []byte
			if pretty {
				out, err = enc.SerializeIndent(doc.Root, "  ")
			} else {
				out, err = enc.Serialize(doc.Root)
			}
			if err != nil {
				return err
			}

			if summary {
				sum, err := encoder.Summarize(out)
				if err != nil {
					return err
				}
				if out, err = json.MarshalIndent(sum, "", "  "); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().Bool("pretty", false, "Indent the output")
	cmd.Flags().Bool("strict", false, "Reject variables not bound by an enclosing function")
	cmd.Flags().Bool("summary", false, "Print function and sharing statistics instead of the payload")
	return cmd
}
