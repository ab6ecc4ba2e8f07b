package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

// Pseudo parameters the example stack builds names and ARNs from.
var (
	// AWS_ACCOUNT_ID is {"Ref": "AWS::AccountId"}.
	AWS_ACCOUNT_ID = intrinsics.AWS_ACCOUNT_ID
	// AWS_REGION is {"Ref": "AWS::Region"}.
	AWS_REGION = intrinsics.AWS_REGION
	// AWS_PARTITION is {"Ref": "AWS::Partition"}, used in managed policy ARNs.
	AWS_PARTITION = intrinsics.AWS_PARTITION
)
