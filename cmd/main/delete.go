package main

import (
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Tear down the agent's CloudFormation stack",
	Long: `Submit deletion of the agent's CloudFormation stack. The delete request is
initiated but not awaited; use 'status' to watch teardown progress.

Deletion asks for confirmation twice. The agent's registration on the
Fivetran side is not removed.`,
	Args: cobra.NoArgs,
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	driver, err := newDriver(cmd.Context())
	if err != nil {
		return err
	}
	return driver.Delete(cmd.Context())
}
