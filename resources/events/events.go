// Package events contains AWS::Events resource types.
package events

// Rule is AWS::Events::Rule.
type Rule struct {
	Description        any           `json:"Description,omitempty"`
	EventBusName       any           `json:"EventBusName,omitempty"`
	EventPattern       any           `json:"EventPattern,omitempty"`
	Name               any           `json:"Name,omitempty"`
	ScheduleExpression any           `json:"ScheduleExpression,omitempty"`
	State              any           `json:"State,omitempty"`
	Targets            []Rule_Target `json:"Targets,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Rule) ResourceType() string {
	return "AWS::Events::Rule"
}

// Rule_Target is one entry of Rule.Targets.
type Rule_Target struct {
	Arn         any               `json:"Arn,omitempty"`
	Id          any               `json:"Id,omitempty"`
	Input       any               `json:"Input,omitempty"`
	RetryPolicy *Rule_RetryPolicy `json:"RetryPolicy,omitempty"`
}

// Rule_RetryPolicy is the RetryPolicy of a Rule_Target.
type Rule_RetryPolicy struct {
	MaximumEventAgeInSeconds any `json:"MaximumEventAgeInSeconds,omitempty"`
	MaximumRetryAttempts     any `json:"MaximumRetryAttempts,omitempty"`
}
