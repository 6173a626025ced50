package cli

import (
	"encoding/json"
	"fmt"

	"github.com/devineonline/smsbroadcast"
	"github.com/devineonline/smsbroadcast/internal/cli/ui"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <to> <message>",
	Short: "Send an SMS to one recipient",
	Long: `Send an SMS to a single Australian number. The number may be given
in local form (0412345678) or international form (+61 412 345 678).

Examples:
  smsb send 0412345678 "Your code is 1234"
  smsb send +61412345678 "Order shipped" --sender ACME --auto-ref
  smsb send 0412345678 "hello" --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: runSend,
}

func init() {
	addSendFlags(sendCmd)
	sendCmd.Flags().String("ref", "", "Reference id echoed in delivery receipts")
	sendCmd.Flags().Bool("auto-ref", false, "Generate a random reference id")
	sendCmd.MarkFlagsMutuallyExclusive("ref", "auto-ref")
}

// addSendFlags registers the flags shared by send and send-many.
func addSendFlags(cmd *cobra.Command) {
	cmd.Flags().String("sender", "", "Sender id, 1 to 11 letters or digits (default gateway.sender)")
	cmd.Flags().Int("max-split", smsbroadcast.DefaultMaxSplit, "Maximum SMS segments the message may span; unset uses gateway.max_split")
	cmd.Flags().Bool("dry-run", false, "Log the request instead of calling the gateway")
}

func runSend(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	opts := a.sendOptions(cmd)
	ref, _ := cmd.Flags().GetString("ref")
	if autoRef, _ := cmd.Flags().GetBool("auto-ref"); autoRef {
		ref = smsbroadcast.NewRef()
	}
	if ref != "" {
		opts = append(opts, smsbroadcast.WithRef(ref))
	}

	to := localNumbers(args[:1])[0]
	progress := a.progress(cmd)
	progress.Start(fmt.Sprintf("Sending to %s", to))

	res, err := a.client.Send(cmd.Context(), to, args[1], opts...)
	if res == nil {
		progress.Fail()
		return err
	}
	if err != nil {
		progress.Fail()
	} else {
		progress.Done(res.SMSRef)
	}

	format := outputFormat(cmd)
	if format == "json" {
		out := struct {
			smsbroadcast.SendResult
			Ref string `json:"ref,omitempty"`
		}{*res, ref}
		if encErr := json.NewEncoder(cmd.OutOrStdout()).Encode(out); encErr != nil {
			return encErr
		}
		return err
	}
	if printErr := printResults(cmd.OutOrStdout(), format, []smsbroadcast.SendResult{*res}, ui.ColorEnabled()); printErr != nil {
		return printErr
	}
	if ref != "" && format == "table" {
		fmt.Fprintf(cmd.OutOrStdout(), "ref: %s\n", ref)
	}
	return err
}
