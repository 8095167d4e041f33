package main

import (
	"context"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetran/hybrid-agent-deploy/internal/config"
	"github.com/fivetran/hybrid-agent-deploy/internal/deploy"
	"github.com/fivetran/hybrid-agent-deploy/internal/fivetran"
	"github.com/fivetran/hybrid-agent-deploy/internal/stack"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Register the agent and apply the CloudFormation stack",
	Long: `Register a hybrid deployment agent with the Fivetran API, then create or
update the agent's CloudFormation stack with the returned token and wait
for it to reach a terminal state.`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func runDeploy(cmd *cobra.Command, args []string) error {
	driver, err := newDriver(cmd.Context())
	if err != nil {
		return err
	}
	return driver.Deploy(cmd.Context())
}

// newDriver loads the config file, resolves AWS credentials, and wires the
// driver against the real Fivetran API and CloudFormation.
func newDriver(ctx context.Context) (*deploy.Driver, error) {
	cfg, err := config.Load(afero.NewOsFs(), viper.GetString("config_file"))
	if err != nil {
		return nil, err
	}

	opts := deploy.DefaultOptions()
	opts.AccountAlias = viper.GetString("aws_account")
	opts.Profile = viper.GetString("profile")
	opts.TemplateURL = templateURL
	opts.AutoApprove = autoApprove

	reconciler, err := stack.NewFromConfig(ctx, cfg.Region, opts.Profile)
	if err != nil {
		return nil, err
	}

	registrar := fivetran.NewClient(fivetran.DefaultBaseURL, cfg.APIKey, cfg.APISecret)
	return deploy.NewDriver(cfg, opts, registrar, reconciler, os.Stdin, os.Stdout), nil
}
