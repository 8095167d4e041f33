package main

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current state of the agent's stack",
	Long: `Describe the agent's CloudFormation stack and print its status, timestamps,
and outputs. A stack that does not exist is reported, not treated as an
error. This command never prompts and never mutates anything.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	driver, err := newDriver(cmd.Context())
	if err != nil {
		return err
	}
	return driver.Status(cmd.Context())
}
