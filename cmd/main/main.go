package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetran/hybrid-agent-deploy/internal/deploy"
	"github.com/fivetran/hybrid-agent-deploy/internal/logging"
)

var (
	cfgFile     string
	awsAccount  string
	awsProfile  string
	templateURL string
	autoApprove bool
	debugMode   bool

	rootCmd = &cobra.Command{
		Use:   "fivetran-agent-deploy",
		Short: "Provision a Fivetran hybrid deployment agent on AWS",
		Long: `fivetran-agent-deploy registers a hybrid deployment agent with the
Fivetran API and provisions it on AWS through a CloudFormation stack
(IAM role, security group, one EC2 instance).

Running without a subcommand deploys.`,
		Args: cobra.NoArgs,
		RunE: runDeploy,
	}
)

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config-file", "c", "config.json", "Path to the deployment config file")
	rootCmd.PersistentFlags().StringVarP(&awsAccount, "aws-account", "e", "production", "Account alias passed to the stack as its environment selector")
	rootCmd.PersistentFlags().StringVar(&awsProfile, "profile", "", "AWS shared config profile")
	rootCmd.PersistentFlags().StringVar(&templateURL, "template-url", deploy.DefaultTemplateURL, "CloudFormation template URL")
	rootCmd.PersistentFlags().BoolVarP(&autoApprove, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	viper.BindPFlag("config_file", rootCmd.PersistentFlags().Lookup("config-file"))
	viper.BindPFlag("aws_account", rootCmd.PersistentFlags().Lookup("aws-account"))
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.SetEnvPrefix("FIVETRAN")
	viper.AutomaticEnv()

	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statusCmd)
}

func initLogging() {
	logging.Initialize(viper.GetBool("debug"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("%s\n", errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
