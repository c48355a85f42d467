package email

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

const charset = "UTF-8"

type SESSender struct {
	client *sesv2.Client
}

/*
NewSESSender loads the default AWS config chain. region overrides AWS_REGION when set.
*/
func NewSESSender(ctx context.Context, region string) (sender *SESSender, e *xerr.Error) {
	var loadOptions []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(region))
	}
	cfg, loadErr := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if loadErr != nil {
		return nil, xerr.NewError(loadErr, "load aws config", region)
	}
	return &SESSender{client: sesv2.NewFromConfig(cfg)}, nil
}

func sesInput(msg Message) *sesv2.SendEmailInput {
	body := &types.Body{Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String(charset)}}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String(charset)}
	}
	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.Sender),
		Destination:      &types.Destination{ToAddresses: msg.Recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charset)},
				Body:    body,
			},
		},
	}
}

func (s *SESSender) Send(ctx context.Context, msg Message) (e *xerr.Error) {
	output, sendErr := s.client.SendEmail(ctx, sesInput(msg))
	if sendErr != nil {
		return xerr.NewError(sendErr, "send email via ses", msg.Recipients)
	}
	tl.Log(tl.Detailed, palette.Green, "SES accepted message %s", aws.ToString(output.MessageId))
	return nil
}
