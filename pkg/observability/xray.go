package observability

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"
)

// XRay captures subsegments under the Lambda facade segment. Outside Lambda there is no
// parent segment, so it is constructed disabled and Capture just runs fn.
type XRay struct {
	enabled bool
}

// NewXRay creates an X-Ray helper
func NewXRay(enabled bool) *XRay {
	return &XRay{enabled: enabled}
}

// Capture runs fn inside a subsegment named name.
func (x *XRay) Capture(ctx context.Context, name string, fn func(context.Context) error) error {
	if x == nil || !x.enabled {
		return fn(ctx)
	}
	return xray.Capture(ctx, name, fn)
}

// Annotate adds an indexed annotation to the current segment.
func (x *XRay) Annotate(ctx context.Context, key, value string) {
	if x == nil || !x.enabled {
		return
	}
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddAnnotation(key, value)
	}
}

// InstrumentAWSConfig traces every AWS SDK call made with cfg.
func InstrumentAWSConfig(cfg *aws.Config) {
	awsv2.AWSV2Instrumentor(&cfg.APIOptions)
}
