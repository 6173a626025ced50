package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the account's remaining SMS credits",
	Args:  cobra.NoArgs,
	RunE:  runBalance,
}

func init() {
	balanceCmd.Flags().Bool("dry-run", false, "Log the request instead of calling the gateway")
}

func runBalance(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	progress := a.progress(cmd)
	progress.Start("Checking balance")
	balance, err := a.client.Balance(cmd.Context())
	if err != nil {
		progress.Fail()
		return err
	}
	progress.Done("")

	w := cmd.OutOrStdout()
	switch outputFormat(cmd) {
	case "json":
		return json.NewEncoder(w).Encode(map[string]int{"balance": balance})
	case "csv":
		return writeCSV(w, []string{"balance"}, [][]string{{strconv.Itoa(balance)}})
	default:
		_, err := fmt.Fprintf(w, "%d credits\n", balance)
		return err
	}
}
