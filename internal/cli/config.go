package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/devineonline/smsbroadcast/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print resolved configuration",
	Long: `Load and print the resolved smsb configuration as TOML.
Shows the result of merging defaults, smsb.toml, environment variables, and flags.
Secrets are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long: `Get a specific configuration value by dotted key path.
Examples: gateway.sender, gateway.max_split, server.port`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in smsb.toml",
	Long: `Set a configuration value in the smsb.toml config file.
Creates the file if it doesn't exist.
Examples:
  smsb config set gateway.username myuser
  smsb config set gateway.sender MyBrand
  smsb config set server.port 9000`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default smsb.toml",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if outputFormat(cmd) == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(cfg.Redacted())
	}

	out, err := cfg.ToTOML()
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	value, err := config.GetValue(cfg, args[0])
	if err != nil {
		return err
	}

	if outputFormat(cmd) == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"key": args[0], "value": value})
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
	return err
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	configPath := configFilePath(cmd)
	key, value := args[0], args[1]

	if !config.IsValidKey(key) {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err := config.SetValue(configPath, key, value); err != nil {
		return fmt.Errorf("setting config value: %w", err)
	}

	shown := value
	if key == "gateway.password" || key == "server.api_key" {
		shown = "********"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, shown)
	fmt.Fprintf(cmd.OutOrStdout(), "Written to %s\n", configPath)

	// Only warn: values are often set one at a time.
	if _, err := config.Load(configPath, nil); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFilePath(cmd)
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}
	if err := config.GenerateDefault(configPath); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Written to %s\n", configPath)
	return err
}

func configFilePath(cmd *cobra.Command) string {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		return config.DefaultPath
	}
	return configPath
}
