package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jk2pr/GoGit-KMP/pkg/codec"
)

func newGraphQLCmd(flags *globalFlags) *cobra.Command {
	var (
		vars    []string
		varsRaw string
	)
	cmd := &cobra.Command{
		Use:   "graphql QUERY",
		Short: "Run a GraphQL query or mutation; @FILE reads the document from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readData(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			variables := map[string]any{}
			if varsRaw != "" {
				if err := codec.Decode([]byte(varsRaw), &variables); err != nil {
					return fmt.Errorf("--vars: %w", err)
				}
			}
			for _, kv := range vars {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("variable %q is not in KEY=VALUE form", kv)
				}
				variables[key] = parseValue(value)
			}

			client, err := newClient(cmd, flags)
			if err != nil {
				return err
			}

			var data json.RawMessage
			execErr := client.GraphQL().Execute(cmd.Context(), string(query), variables, &data)
			if len(data) > 0 {
				if err := writeBody(cmd.OutOrStdout(), data, client.Config().PrettyPrint); err != nil {
					return err
				}
			}
			return execErr
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "variable as KEY=VALUE; JSON values are decoded (repeatable)")
	cmd.Flags().StringVar(&varsRaw, "vars", "", "variables as a JSON object")
	return cmd
}

// parseValue decodes JSON scalars and objects, falling back to the raw string
func parseValue(s string) any {
	var v any
	if err := codec.Decode([]byte(s), &v); err != nil {
		return s
	}
	return v
}
