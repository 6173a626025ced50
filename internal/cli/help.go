package cli

import "github.com/spf13/cobra"

// Command group IDs.
const (
	groupMessaging = "messaging"
	groupRelay     = "relay"
	groupConfig    = "config"
)

// initHelp registers command groups for the help listing.
func initHelp() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupMessaging, Title: "MESSAGING"},
		&cobra.Group{ID: groupRelay, Title: "RELAY"},
		&cobra.Group{ID: groupConfig, Title: "CONFIGURATION"},
	)

	assign := map[string]string{
		"send":      groupMessaging,
		"send-many": groupMessaging,
		"balance":   groupMessaging,

		"serve": groupRelay,

		"config":  groupConfig,
		"version": groupConfig,
	}
	for _, cmd := range rootCmd.Commands() {
		if gid, ok := assign[cmd.Name()]; ok {
			cmd.GroupID = gid
		}
	}
	rootCmd.SetHelpCommandGroupID(groupConfig)
	rootCmd.SetCompletionCommandGroupID(groupConfig)
}
