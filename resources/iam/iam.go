// Package iam contains AWS::IAM resource types.
package iam

// Role is AWS::IAM::Role.
type Role struct {
	AssumeRolePolicyDocument any   `json:"AssumeRolePolicyDocument,omitempty"`
	Description              any   `json:"Description,omitempty"`
	ManagedPolicyArns        []any `json:"ManagedPolicyArns,omitempty"`
	Path                     any   `json:"Path,omitempty"`
	RoleName                 any   `json:"RoleName,omitempty"`
	Tags                     []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Role) ResourceType() string {
	return "AWS::IAM::Role"
}
