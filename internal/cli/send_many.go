package cli

import (
	"fmt"
	"strings"

	"github.com/devineonline/smsbroadcast/internal/cli/ui"
	"github.com/spf13/cobra"
)

var sendManyCmd = &cobra.Command{
	Use:   "send-many <to,to,...> <message>",
	Short: "Send one SMS to several recipients in a single request",
	Long: `Send the same message to a comma-separated list of numbers in one
gateway request. Rejected recipients are reported per line; the command
exits non-zero only when the whole request fails.

Examples:
  smsb send-many 0412345678,0498765432 "Meeting moved to 3pm"
  smsb send-many "+61412345678, 0498765432" "hi" --output csv`,
	Args: cobra.ExactArgs(2),
	RunE: runSendMany,
}

func init() {
	addSendFlags(sendManyCmd)
}

func runSendMany(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	to := localNumbers(splitRecipients(args[0]))
	progress := a.progress(cmd)
	progress.Start(fmt.Sprintf("Sending to %d recipients", len(to)))

	results, err := a.client.SendMany(cmd.Context(), to, args[1], a.sendOptions(cmd)...)
	if err != nil {
		progress.Fail()
		return err
	}

	sent, rejected := countResults(results)
	if rejected > 0 {
		progress.Warn(fmt.Sprintf("%d sent, %d rejected", sent, rejected))
	} else {
		progress.Done(fmt.Sprintf("%d sent", sent))
	}

	return printResults(cmd.OutOrStdout(), outputFormat(cmd), results, ui.ColorEnabled())
}

// splitRecipients splits a comma-separated list, trimming blanks. Empty
// entries are kept so validation can report them.
func splitRecipients(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
