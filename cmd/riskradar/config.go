package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/riskradar/riskradar/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage RiskRadar configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default configuration to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		if shown.GitHub.Token != "" {
			shown.GitHub.Token = "****"
		}
		if shown.Server.WebhookSecret != "" {
			shown.Server.WebhookSecret = "****"
		}
		if shown.API.OpenAIKey != "" {
			shown.API.OpenAIKey = "****"
		}
		data, err := yaml.Marshal(&shown)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		result := cfg.Validate(config.ValidationContextServe)
		for _, w := range result.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		if result.HasErrors() {
			return fmt.Errorf("%s", result.Error())
		}
		fmt.Println("Configuration is valid.")
		return nil
	},
}

func init() {
	configInitCmd.Flags().String("path", "", "destination (default: ~/.riskradar/config.yaml)")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}
