package schema

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property.
type PropertySchema struct {
	Type          string
	AllowedValues []string
	// MaxItems bounds List values when positive.
	MaxItems int
	// Min and Max bound Integer values when either is non-zero.
	Min, Max int
}

// resourceSchemas covers the resource types the stack synthesizes.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::Lambda::Function": {
		Required: []string{"Code", "Role"},
		Properties: map[string]PropertySchema{
			"Architectures": {Type: "List", AllowedValues: []string{"x86_64", "arm64"}, MaxItems: 1},
			"Code":          {Type: "Map"},
			"Description":   {Type: "String"},
			"Environment":   {Type: "Map"},
			"FunctionName":  {Type: "String"},
			"Handler":       {Type: "String"},
			"MemorySize":    {Type: "Integer", Min: 128, Max: 10240},
			"Role":          {Type: "String"},
			"Runtime":       {Type: "String"},
			"Tags":          {Type: "List"},
			"Timeout":       {Type: "Integer", Min: 1, Max: 900},
		},
	},
	"AWS::Lambda::Permission": {
		Required: []string{"Action", "FunctionName", "Principal"},
		Properties: map[string]PropertySchema{
			"Action":        {Type: "String"},
			"FunctionName":  {Type: "String"},
			"Principal":     {Type: "String"},
			"SourceAccount": {Type: "String"},
			"SourceArn":     {Type: "String"},
		},
	},
	"AWS::Events::Rule": {
		Properties: map[string]PropertySchema{
			"Description":        {Type: "String"},
			"EventPattern":       {Type: "Map"},
			"Name":               {Type: "String"},
			"ScheduleExpression": {Type: "String"},
			"State":              {Type: "String", AllowedValues: []string{"ENABLED", "DISABLED", "ENABLED_WITH_ALL_CLOUDTRAIL_MANAGEMENT_EVENTS"}},
			"Targets":            {Type: "List", MaxItems: 5},
		},
	},
	"AWS::IAM::Role": {
		Required: []string{"AssumeRolePolicyDocument"},
		Properties: map[string]PropertySchema{
			"AssumeRolePolicyDocument": {Type: "Map"},
			"Description":              {Type: "String"},
			"ManagedPolicyArns":        {Type: "List"},
			"Path":                     {Type: "String"},
			"RoleName":                 {Type: "String"},
			"Tags":                     {Type: "List"},
		},
	},
}
