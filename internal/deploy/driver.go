package deploy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fivetran/hybrid-agent-deploy/internal/config"
	"github.com/fivetran/hybrid-agent-deploy/internal/logging"
	"github.com/fivetran/hybrid-agent-deploy/internal/stack"
)

// DefaultTemplateURL is the published CloudFormation template for the hybrid
// agent (IAM role, security group, one EC2 instance).
const DefaultTemplateURL = "https://fivetran-hybrid-agent-artifacts.s3.amazonaws.com/templates/hybrid-agent.yaml"

// InstanceIDOutputKey is the well-known stack output carrying the agent's
// EC2 instance id.
const InstanceIDOutputKey = "AgentInstanceId"

// Registrar registers a hybrid agent and returns its token.
type Registrar interface {
	RegisterAgent(ctx context.Context, displayName, groupID string) (string, error)
}

// StackClient is the resource-collection provider seam the driver runs
// against; *stack.Reconciler satisfies it.
type StackClient interface {
	Apply(ctx context.Context, name, templateURL string, params map[string]string, tags map[string]string) error
	Destroy(ctx context.Context, name string) error
	Describe(ctx context.Context, name string) (*stack.Description, error)
}

// Options carries the operational settings resolved from flags and defaults,
// as opposed to the required fields read from the config file.
type Options struct {
	AccountAlias string // -e/--aws-account
	Profile      string // --profile
	TemplateURL  string
	AutoApprove  bool // --yes

	Team       string
	Department string
	Owner      string
	Expiry     string
}

// DefaultOptions returns the operational defaults the driver owns. None of
// these are required config fields.
func DefaultOptions() Options {
	return Options{
		AccountAlias: "production",
		TemplateURL:  DefaultTemplateURL,
		Team:         "data-platform",
		Department:   "engineering",
		Owner:        "unassigned",
		Expiry:       "never",
	}
}

// Driver owns command dispatch order and the confirmation gate. All mutating
// calls happen only after explicit confirmation.
type Driver struct {
	cfg       *config.DeploymentConfig
	opts      Options
	registrar Registrar
	stacks    StackClient
	reader    *bufio.Reader
	out       io.Writer
}

// NewDriver creates a Driver. in is the confirmation input stream (stdin in
// production, scripted answers in tests).
func NewDriver(cfg *config.DeploymentConfig, opts Options, registrar Registrar, stacks StackClient, in io.Reader, out io.Writer) *Driver {
	return &Driver{
		cfg:       cfg,
		opts:      opts,
		registrar: registrar,
		stacks:    stacks,
		reader:    bufio.NewReader(in),
		out:       out,
	}
}

// Deploy registers the agent with Fivetran and applies the stack, after a
// single confirmation. Cancelling at the prompt is a clean non-error exit
// with no registration or stack call made.
func (d *Driver) Deploy(ctx context.Context) error {
	d.printSummary("deploy")

	ok, err := d.confirm("Proceed with deployment?")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(d.out, "Deployment cancelled.")
		return nil
	}

	fmt.Fprintf(d.out, "🔑 Registering agent %q with Fivetran...\n", d.cfg.AgentName)
	token, err := d.registrar.RegisterAgent(ctx, d.cfg.AgentName, d.cfg.GroupID)
	if err != nil {
		return err
	}
	logging.Debug("registration returned a token of %d characters", len(token))

	stackName := d.cfg.StackName()
	fmt.Fprintf(d.out, "🚀 Applying stack %s (this can take several minutes)...\n", stackName)

	params := map[string]string{
		"ProjectName": d.cfg.AgentName,
		"Environment": d.opts.AccountAlias,
		"SourceIp":    d.cfg.SourceIP,
		"ExternalId":  d.cfg.GroupID,
		"AgentToken":  token,
		"Team":        d.opts.Team,
		"Department":  d.opts.Department,
		"Owner":       d.opts.Owner,
		"Expiry":      d.opts.Expiry,
	}
	tags := map[string]string{
		"team":       d.opts.Team,
		"department": d.opts.Department,
		"owner":      d.opts.Owner,
		"expiry":     d.opts.Expiry,
	}
	if err := d.stacks.Apply(ctx, stackName, d.opts.TemplateURL, params, tags); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "%s\n", successStyle.Render("✅ Stack "+stackName+" is ready"))

	desc, err := d.stacks.Describe(ctx, stackName)
	if err != nil {
		return err
	}
	if desc == nil || desc.Outputs[InstanceIDOutputKey] == "" {
		fmt.Fprintf(d.out, "⚠️  Stack reported no %s output; check the stack in the AWS console\n", InstanceIDOutputKey)
		return nil
	}
	fmt.Fprintf(d.out, "🖥️  Agent instance: %s\n", desc.Outputs[InstanceIDOutputKey])
	return nil
}

// Delete tears the stack down after two independent confirmations. The
// delete request is submitted but not awaited; teardown progress is visible
// via Status.
func (d *Driver) Delete(ctx context.Context) error {
	d.printSummary("delete")
	stackName := d.cfg.StackName()

	ok, err := d.confirm(fmt.Sprintf("Delete stack %s?", stackName))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(d.out, "Deletion cancelled.")
		return nil
	}

	ok, err = d.confirm("This terminates the agent instance and removes its IAM role. Are you sure?")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(d.out, "Deletion cancelled.")
		return nil
	}

	if err := d.stacks.Destroy(ctx, stackName); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "🗑️  Deletion of %s initiated. Run 'fivetran-agent-deploy status' to watch teardown.\n", stackName)
	return nil
}

// Status describes the stack and prints it. It never prompts and never
// mutates; an absent stack is well-formed output, not an error.
func (d *Driver) Status(ctx context.Context) error {
	desc, err := d.stacks.Describe(ctx, d.cfg.StackName())
	if err != nil {
		return err
	}
	fmt.Fprint(d.out, FormatStatus(d.cfg.StackName(), desc))
	return nil
}

func (d *Driver) confirm(prompt string) (bool, error) {
	if d.opts.AutoApprove {
		return true, nil
	}
	fmt.Fprintf(d.out, "%s [y/N]: ", prompt)
	input, err := d.reader.ReadString('\n')
	if err != nil && input == "" {
		return false, fmt.Errorf("failed to read input: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(input))
	return answer == "y" || answer == "yes", nil
}

func (d *Driver) printSummary(mode string) {
	fmt.Fprintf(d.out, "%s\n", titleStyle.Render("Fivetran hybrid agent: "+mode))
	fmt.Fprintf(d.out, "  Agent name:   %s\n", d.cfg.AgentName)
	fmt.Fprintf(d.out, "  Group id:     %s\n", d.cfg.GroupID)
	fmt.Fprintf(d.out, "  Region:       %s\n", d.cfg.Region)
	fmt.Fprintf(d.out, "  Source IP:    %s\n", d.cfg.SourceIP)
	fmt.Fprintf(d.out, "  Stack name:   %s\n", d.cfg.StackName())
	fmt.Fprintf(d.out, "  Account:      %s\n", d.opts.AccountAlias)
	if d.opts.Profile != "" {
		fmt.Fprintf(d.out, "  AWS profile:  %s\n", d.opts.Profile)
	}
	fmt.Fprintf(d.out, "  API key:      %s\n", maskSecret(d.cfg.APIKey))
	fmt.Fprintf(d.out, "  API secret:   %s\n", maskSecret(d.cfg.APISecret))
	if mode == "deploy" {
		fmt.Fprintf(d.out, "  Agent token:  <provided after registration>\n")
	}
	fmt.Fprintln(d.out)
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "..."
}
