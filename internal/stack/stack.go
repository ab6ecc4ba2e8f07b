// Package stack composes the example functions and their hourly trigger
// into a CloudFormation template.
package stack

import (
	"fmt"

	wetwire "github.com/lex00/wetwire-lambda-examples"
	"github.com/lex00/wetwire-lambda-examples/internal/functions"
	"github.com/lex00/wetwire-lambda-examples/internal/serialize"
	"github.com/lex00/wetwire-lambda-examples/internal/template"
	"github.com/lex00/wetwire-lambda-examples/intrinsics"
	"github.com/lex00/wetwire-lambda-examples/resources/events"
	"github.com/lex00/wetwire-lambda-examples/resources/iam"
	"github.com/lex00/wetwire-lambda-examples/resources/lambda"
)

const (
	// PreserveTag marks the stack to be kept by account cleanup jobs.
	PreserveTag = "DD_PRESERVE_STACK"

	// DefaultDescription is the template description when none is set.
	DefaultDescription = "Lambda runtime examples"

	// AssetPathMetadata records the source a function was bundled from.
	AssetPathMetadata = "aws:asset:path"
)

// DefaultAssetBucket is the bucket archives are published to when none is
// configured.
var DefaultAssetBucket = intrinsics.Join{
	Delimiter: "-",
	Values:    []any{"lambda-examples-assets", intrinsics.AWS_ACCOUNT_ID, intrinsics.AWS_REGION},
}

// Stack is the set of resources deployed together.
type Stack struct {
	Name        string
	Description string
	Tags        map[string]string
	// AssetBucket is the bucket holding function archives: a name or an intrinsic.
	AssetBucket any
	// AssetPrefix is prepended to every asset key.
	AssetPrefix string
	Assets      AssetResolver
	Trigger     *Trigger
}

// Option configures a Stack.
type Option func(*Stack)

// WithDescription sets the template description.
func WithDescription(d string) Option {
	return func(s *Stack) { s.Description = d }
}

// WithTag adds a stack-wide tag.
func WithTag(key, value string) Option {
	return func(s *Stack) { s.Tags[key] = value }
}

// WithAssetBucket sets the bucket name archives are read from.
func WithAssetBucket(bucket string) Option {
	return func(s *Stack) {
		if bucket != "" {
			s.AssetBucket = bucket
		}
	}
}

// WithAssetPrefix sets the key prefix of archives.
func WithAssetPrefix(prefix string) Option {
	return func(s *Stack) { s.AssetPrefix = prefix }
}

// WithAssets sets how archive keys are resolved.
func WithAssets(r AssetResolver) Option {
	return func(s *Stack) { s.Assets = r }
}

// New creates a stack with the hourly trigger and the preserve tag.
func New(name string, opts ...Option) *Stack {
	s := &Stack{
		Name:        name,
		Description: DefaultDescription,
		Tags:        map[string]string{PreserveTag: "true"},
		AssetBucket: DefaultAssetBucket,
		Assets:      FingerprintAssets{},
		Trigger:     NewHourlyTrigger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind attaches units to the stack's trigger.
func (s *Stack) Bind(units ...functions.Unit) error {
	return s.Trigger.Bind(units...)
}

// FunctionLogicalID returns the logical ID of a unit's function.
func FunctionLogicalID(u functions.Unit) string {
	return serialize.LogicalID(u.ID)
}

// RoleLogicalID returns the logical ID of a unit's execution role.
func RoleLogicalID(u functions.Unit) string {
	return FunctionLogicalID(u) + "ServiceRole"
}

// PermissionLogicalID returns the logical ID of the permission letting the
// rule invoke a unit.
func PermissionLogicalID(u functions.Unit) string {
	return FunctionLogicalID(u) + "InvokePermission"
}

// Register adds every resource of the stack to a template builder.
func (s *Stack) Register() (*template.Builder, error) {
	bindings := s.Trigger.Bindings
	if len(bindings) > MaxTargetsPerRule {
		return nil, fmt.Errorf("%w: %s has %d targets, the limit is %d",
			ErrTooManyTargets, RuleLogicalID, len(bindings), MaxTargetsPerRule)
	}

	b := template.NewBuilder(s.Description)
	tags := tagList(s.Tags)

	targets := make([]events.Rule_Target, 0, len(bindings))
	for i, binding := range bindings {
		u := binding.Unit
		fn := FunctionLogicalID(u)
		role := RoleLogicalID(u)

		key, err := s.Assets.AssetKey(u)
		if err != nil {
			return nil, fmt.Errorf("resolving asset of %s: %w", u.ID, err)
		}

		err = b.Add(role, iam.Role{
			AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
				Effect:    "Allow",
				Principal: intrinsics.ServicePrincipal{"lambda.amazonaws.com"},
				Action:    "sts:AssumeRole",
			}),
			ManagedPolicyArns: []any{
				intrinsics.ManagedPolicyArn("service-role/AWSLambdaBasicExecutionRole"),
			},
			Tags: tags,
		})
		if err != nil {
			return nil, err
		}

		function := lambda.Function{
			Architectures: []any{u.Architecture.String()},
			Code: &lambda.Function_Code{
				S3Bucket: s.AssetBucket,
				S3Key:    s.AssetPrefix + key,
			},
			Handler:    u.Handler,
			MemorySize: u.MemorySize,
			Role:       wetwire.AttrRef{Resource: role, Attribute: "Arn"},
			Runtime:    u.Runtime,
			Tags:       tags,
		}
		if u.Timeout > 0 {
			function.Timeout = u.Timeout
		}
		if len(u.Environment) > 0 {
			vars := make(map[string]any, len(u.Environment))
			for k, v := range u.Environment {
				vars[k] = v
			}
			function.Environment = &lambda.Function_Environment{Variables: vars}
		}

		err = b.Add(fn, function,
			template.DependsOn(role),
			template.WithMetadata(AssetPathMetadata, u.Build.SourcePath()),
		)
		if err != nil {
			return nil, err
		}

		err = b.Add(PermissionLogicalID(u), lambda.Permission{
			Action:       "lambda:InvokeFunction",
			FunctionName: wetwire.AttrRef{Resource: fn, Attribute: "Arn"},
			Principal:    "events.amazonaws.com",
			SourceArn:    wetwire.AttrRef{Resource: RuleLogicalID, Attribute: "Arn"},
		})
		if err != nil {
			return nil, err
		}

		targets = append(targets, events.Rule_Target{
			Arn: wetwire.AttrRef{Resource: fn, Attribute: "Arn"},
			Id:  fmt.Sprintf("Target%d", i),
			RetryPolicy: &events.Rule_RetryPolicy{
				MaximumRetryAttempts: binding.RetryAttempts,
			},
		})

		b.AddOutput(fn+"Arn", wetwire.Output{
			Description: "ARN of " + u.ID,
			Value:       wetwire.AttrRef{Resource: fn, Attribute: "Arn"},
		})
	}

	err := b.Add(RuleLogicalID, events.Rule{
		Description:        s.Trigger.Description,
		ScheduleExpression: s.Trigger.Schedule,
		State:              "ENABLED",
		Targets:            targets,
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// Synthesize builds the CloudFormation template of the stack.
func (s *Stack) Synthesize() (*wetwire.Template, error) {
	b, err := s.Register()
	if err != nil {
		return nil, err
	}
	return b.Build()
}

// tagList renders tags in the list form resources expect.
func tagList(m map[string]string) []any {
	tags := intrinsics.Tags(m)
	list := make([]any, len(tags))
	for i, t := range tags {
		list[i] = t
	}
	return list
}
