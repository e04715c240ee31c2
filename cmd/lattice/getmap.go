package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newGetMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "getmap <file|->",
		Short: "Request a map id for a graph document",
		Long: `Requests a renderable map for the root expression of a graph document.
Features and collections are drawn with the document params, overridden by --param.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			rawParams, _ := cmd.Flags().GetStringArray("param")

			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			root, ok := doc.Root.(*domain.Node)
			if !ok {
				return fmt.Errorf("root of %s is not an invocation", args[0])
			}

			params := maps.Clone(doc.Params)
			overrides, err := parseParams(rawParams)
			if err != nil {
				return err
			}
			if params == nil && len(overrides) > 0 {
				params = map[string]any{}
			}
			maps.Copy(params, overrides)

			stack, err := cli.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer stack.Close()

			m, err := stack.Client.GetMapID(cmd.Context(), root, params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(map[string]string{"mapid": m.MapID, "token": m.Token})
			}
			_, err = fmt.Fprintf(out, "mapid: %s\ntoken: %s\n", m.MapID, m.Token)
			return err
		},
	}

	cmd.Flags().StringArrayP("param", "p", nil, "Visualization param as key=value (repeatable)")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	return cmd
}

func newValueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "value <file|->",
		Short: "Request the computed value of a graph document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			stack, err := cli.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer stack.Close()

			result, err := stack.Client.GetInfo(cmd.Context(), doc.Root)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(result))
			return err
		},
	}
}

// parseParams turns key=value pairs into params. Values are read as YAML scalars,
// so numbers and booleans keep their type.
func parseParams(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid param %q, expected key=value", p)
		}
		var val any
		if err := yaml.Unmarshal([]byte(v), &val); err != nil || val == nil {
			val = v
		}
		out[k] = val
	}
	return out, nil
}
