// Package lambda contains AWS::Lambda resource types.
package lambda

// Function is AWS::Lambda::Function.
type Function struct {
	// Architectures is the instruction set architecture ("x86_64" or "arm64").
	Architectures []any `json:"Architectures,omitempty"`
	// Code is the deployment package location.
	Code *Function_Code `json:"Code,omitempty"`
	// Description of the function.
	Description any `json:"Description,omitempty"`
	// Environment holds environment variables.
	Environment *Function_Environment `json:"Environment,omitempty"`
	// FunctionName is the physical name of the function.
	FunctionName any `json:"FunctionName,omitempty"`
	// Handler is the entry point; "bootstrap" for custom runtimes.
	Handler any `json:"Handler,omitempty"`
	// MemorySize in MB (128-10240).
	MemorySize any `json:"MemorySize,omitempty"`
	// Role is the execution role ARN.
	Role any `json:"Role,omitempty"`
	// Runtime identifier, e.g. "provided.al2023".
	Runtime any `json:"Runtime,omitempty"`
	// Tags applied to the function.
	Tags []any `json:"Tags,omitempty"`
	// Timeout in seconds.
	Timeout any `json:"Timeout,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Function) ResourceType() string {
	return "AWS::Lambda::Function"
}

// Function_Code is the Code property of AWS::Lambda::Function.
type Function_Code struct {
	S3Bucket any `json:"S3Bucket,omitempty"`
	S3Key    any `json:"S3Key,omitempty"`
	ZipFile  any `json:"ZipFile,omitempty"`
}

// Function_Environment is the Environment property of AWS::Lambda::Function.
type Function_Environment struct {
	Variables map[string]any `json:"Variables,omitempty"`
}

// Permission is AWS::Lambda::Permission.
type Permission struct {
	Action       any `json:"Action,omitempty"`
	FunctionName any `json:"FunctionName,omitempty"`
	Principal    any `json:"Principal,omitempty"`
	SourceArn    any `json:"SourceArn,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Permission) ResourceType() string {
	return "AWS::Lambda::Permission"
}
