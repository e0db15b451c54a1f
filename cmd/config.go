package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/arcanaland/dexmatch/internal/config"
	"github.com/arcanaland/dexmatch/internal/game"
	"github.com/spf13/cobra"
)

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the dexmatch configuration",
	Long: `Commands for managing the dexmatch configuration file.
Values in the file can be overridden with DEXMATCH_* environment variables.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file with defaults if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		// the root command has already loaded, and if needed created, the file
		fmt.Println("Config file initialized at:", config.GetConfigFilePath())
		fmt.Println("Detail cache at:", config.GetDetailCachePath())
		return nil
	},
}

// configShowCmd prints the effective configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration, environment overrides included",
	RunE: func(cmd *cobra.Command, args []string) error {
		return toml.NewEncoder(os.Stdout).Encode(appConfig)
	},
}

// configPathCmd prints the config file location
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.GetConfigFilePath())
	},
}

// configSetDifficultyCmd represents the config set-difficulty command
var configSetDifficultyCmd = &cobra.Command{
	Use:   "set-difficulty [name]",
	Short: "Set the default difficulty",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := game.LookupDifficulty(args[0])
		if err != nil {
			return err
		}
		if err := config.SetDifficulty(cfg.Difficulty); err != nil {
			return fmt.Errorf("error setting default difficulty: %w", err)
		}
		fmt.Printf("Default difficulty set to: %s (%d pairs, %ds)\n", cfg.Difficulty, cfg.PairCount, cfg.TimeLimitSeconds)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetDifficultyCmd)
}
