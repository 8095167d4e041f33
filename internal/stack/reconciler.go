package stack

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"

	"github.com/fivetran/hybrid-agent-deploy/internal/logging"
)

// cloudformationAPI narrows the SDK client to the operations the reconciler
// uses, so tests can substitute a double for the real provider.
type cloudformationAPI interface {
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// ProviderUnavailableError indicates AWS credentials or configuration could
// not be resolved before any stack operation was attempted.
type ProviderUnavailableError struct {
	Err error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("AWS provider unavailable: %v (check your credentials and --profile)", e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// ReconciliationError indicates a stack operation or its completion wait
// failed on the provider side.
type ReconciliationError struct {
	StackName string
	Op        string
	Err       error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("stack %s failed for %s: %v", e.Op, e.StackName, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// Description is a read-only projection of a stack's current state.
type Description struct {
	Name         string
	Status       string
	StatusReason string
	CreatedTime  time.Time
	UpdatedTime  *time.Time
	Outputs      map[string]string
}

// Reconciler applies, destroys, and describes a named CloudFormation stack.
type Reconciler struct {
	api         cloudformationAPI
	waitTimeout time.Duration
}

// New creates a Reconciler over the given CloudFormation API.
func New(api cloudformationAPI) *Reconciler {
	return &Reconciler{
		api:         api,
		waitTimeout: 60 * time.Minute,
	}
}

// NewFromConfig resolves the default AWS credential chain for the given
// region (and optional shared config profile) and returns a Reconciler backed
// by a real CloudFormation client.
func NewFromConfig(ctx context.Context, region, profile string) (*Reconciler, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &ProviderUnavailableError{Err: err}
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, &ProviderUnavailableError{Err: err}
	}

	return New(cloudformation.NewFromConfig(cfg)), nil
}

// Apply submits a create-or-update for the named stack and blocks until the
// provider reports a terminal state. A create attempt against an existing
// stack falls through to an update; an update with nothing to change is
// success.
func (r *Reconciler) Apply(ctx context.Context, name, templateURL string, params map[string]string, tags map[string]string) error {
	cfnParams := toParameters(params)
	cfnTags := toTags(tags)

	logging.Debug("submitting stack create for %s", name)
	_, err := r.api.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(name),
		TemplateURL:  aws.String(templateURL),
		Parameters:   cfnParams,
		Tags:         cfnTags,
		Capabilities: []types.Capability{types.CapabilityCapabilityNamedIam},
	})
	switch {
	case err == nil:
		waiter := cloudformation.NewStackCreateCompleteWaiter(r.api)
		if err := waiter.Wait(ctx, describeInput(name), r.waitTimeout); err != nil {
			return &ReconciliationError{StackName: name, Op: "create", Err: err}
		}
		return nil

	case isAlreadyExists(err):
		logging.Debug("stack %s already exists, submitting update", name)
		_, err := r.api.UpdateStack(ctx, &cloudformation.UpdateStackInput{
			StackName:    aws.String(name),
			TemplateURL:  aws.String(templateURL),
			Parameters:   cfnParams,
			Tags:         cfnTags,
			Capabilities: []types.Capability{types.CapabilityCapabilityNamedIam},
		})
		if err != nil {
			if isNoUpdates(err) {
				return nil
			}
			return &ReconciliationError{StackName: name, Op: "update", Err: err}
		}
		waiter := cloudformation.NewStackUpdateCompleteWaiter(r.api)
		if err := waiter.Wait(ctx, describeInput(name), r.waitTimeout); err != nil {
			return &ReconciliationError{StackName: name, Op: "update", Err: err}
		}
		return nil

	default:
		return &ReconciliationError{StackName: name, Op: "create", Err: err}
	}
}

// Destroy submits a delete for the named stack and returns as soon as the
// request is accepted; it does not wait for teardown to finish. Destroying a
// stack that does not exist is a no-op.
func (r *Reconciler) Destroy(ctx context.Context, name string) error {
	desc, err := r.Describe(ctx, name)
	if err != nil {
		return err
	}
	if desc == nil {
		logging.Debug("stack %s does not exist, nothing to destroy", name)
		return nil
	}

	if _, err := r.api.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName: aws.String(name),
	}); err != nil {
		return &ReconciliationError{StackName: name, Op: "delete", Err: err}
	}
	return nil
}

// Describe returns the named stack's current state, or (nil, nil) if the
// stack does not exist.
func (r *Reconciler) Describe(ctx context.Context, name string) (*Description, error) {
	out, err := r.api.DescribeStacks(ctx, describeInput(name))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, &ReconciliationError{StackName: name, Op: "describe", Err: err}
	}
	if len(out.Stacks) == 0 {
		return nil, nil
	}

	s := out.Stacks[0]
	desc := &Description{
		Name:         aws.ToString(s.StackName),
		Status:       string(s.StackStatus),
		StatusReason: aws.ToString(s.StackStatusReason),
		UpdatedTime:  s.LastUpdatedTime,
		Outputs:      make(map[string]string, len(s.Outputs)),
	}
	if s.CreationTime != nil {
		desc.CreatedTime = *s.CreationTime
	}
	for _, o := range s.Outputs {
		desc.Outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	return desc, nil
}

func describeInput(name string) *cloudformation.DescribeStacksInput {
	return &cloudformation.DescribeStacksInput{StackName: aws.String(name)}
}

func toParameters(params map[string]string) []types.Parameter {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Parameter, 0, len(params))
	for _, k := range keys {
		out = append(out, types.Parameter{
			ParameterKey:   aws.String(k),
			ParameterValue: aws.String(params[k]),
		})
	}
	return out
}

func toTags(tags map[string]string) []types.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Tag, 0, len(tags))
	for _, k := range keys {
		out = append(out, types.Tag{
			Key:   aws.String(k),
			Value: aws.String(tags[k]),
		})
	}
	return out
}

func isAlreadyExists(err error) bool {
	var aee *types.AlreadyExistsException
	return errors.As(err, &aee)
}

// CloudFormation reports both "nothing to change" and "no such stack" as
// ValidationError, distinguishable only by message.
func isNoUpdates(err error) bool {
	return err != nil && strings.Contains(err.Error(), "No updates are to be performed")
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "does not exist")
}
