package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/txsim/internal/profiles"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [bundle.yaml]",
		Short: "Validate a profile bundle",
		Long: `Validate a profile bundle.

This command checks for:
  - Client profiles without a name or with negative frequencies
  - Step profiles with out-of-range amounts or negative counts
  - Unknown action types
  - Malformed balance and overdraft tables

Without an argument the bundle from the config is checked, or the embedded
default bundle when none is configured.

Examples:
  txsim validate                 # Validate the configured bundle
  txsim validate paysim.yaml     # Validate a specific file
  txsim validate --json          # Machine-readable report`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				path = cfg.Profiles.Path
			}

			bundle, err := profiles.LoadOrDefault(path)
			if err != nil {
				return err
			}
			issues := profiles.Validate(bundle)

			label := path
			if label == "" {
				label = "(embedded)"
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if issues == nil {
					issues = []profiles.ValidationError{}
				}
				if err := json.NewEncoder(out).Encode(map[string]any{
					"bundle":  label,
					"valid":   len(issues) == 0,
					"clients": len(bundle.Clients),
					"steps":   len(bundle.Steps),
					"issues":  issues,
				}); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "Bundle %s: %d client profiles, %d step profiles\n",
					label, len(bundle.Clients), len(bundle.Steps))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
				if len(issues) == 0 {
					fmt.Fprintln(out, "No issues found.")
				}
			}

			if len(issues) > 0 {
				return fmt.Errorf("%d validation issue(s) found", len(issues))
			}
			return nil
		},
	}
	return cmd
}
