package cli

import (
	"encoding/json"
	"fmt"

	"github.com/devineonline/smsbroadcast/internal/cli/ui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print smsb version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat(cmd) == "json" {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
				"version": buildVersion,
				"commit":  buildCommit,
				"date":    buildDate,
			})
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s smsb %s (commit: %s, built: %s)\n", ui.BrandEmoji, buildVersion, buildCommit, buildDate)
		return err
	},
}
