package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonata-project/devkit/config"
)

var projectName string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file if it doesn't exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.CreateDefaultConfig(configPath); err != nil {
			return fmt.Errorf("failed to create default configuration: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created default configuration at %s\n", configPath)
		return nil
	},
}

var addProjectCmd = &cobra.Command{
	Use:   "add-project <owner/name>",
	Short: "Add a project to the configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddProject,
}

func init() {
	addProjectCmd.Flags().StringVar(&projectName, "name", "", "Display name (default: repository name)")
	rootCmd.AddCommand(initCmd, addProjectCmd)
}

func runAddProject(cmd *cobra.Command, args []string) error {
	repository := args[0]

	cfg, err := config.ReadConfig(configPath)
	if err != nil {
		return err
	}

	added, err := cfg.AddProject(projectName, repository)
	if err != nil {
		return fmt.Errorf("invalid repository: %w", err)
	}

	if !added {
		fmt.Fprintf(cmd.OutOrStdout(), "Repository %s already exists in configuration\n", repository)
		return nil
	}

	if err := config.SaveConfig(cfg, configPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added repository %s to configuration\n", repository)
	return nil
}
