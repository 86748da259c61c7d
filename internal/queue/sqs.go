package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const (
	sqsWaitSeconds       = 20
	sqsMaxBatch          = 10
	sqsDefaultVisibility = 1200
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSQueue is an SQS-backed queue with long-poll receive and
// delete-on-acknowledge, giving at-least-once delivery.
type SQSQueue struct {
	client            sqsAPI
	name              Name
	queueURL          string
	visibilitySeconds int32

	buffer []Delivery
}

// NewSQSQueue constructs an SQS-backed queue from the default AWS config.
func NewSQSQueue(ctx context.Context, name Name, queueURL, region string, visibilitySeconds int) (*SQSQueue, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}
	if queueURL == "" {
		return nil, fmt.Errorf("sqs queue url is required for queue %s", name)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if visibilitySeconds <= 0 {
		visibilitySeconds = sqsDefaultVisibility
	}
	return &SQSQueue{
		client:            sqs.NewFromConfig(cfg),
		name:              name,
		queueURL:          queueURL,
		visibilitySeconds: int32(visibilitySeconds),
	}, nil
}

// Enqueue delivers the encoded task to the configured SQS queue.
func (q *SQSQueue) Enqueue(ctx context.Context, task Task) error {
	payload, err := EncodeTask(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

// Dequeue returns the next buffered delivery, long-polling SQS when the
// buffer is empty. Not safe for concurrent use; the worker pool dequeues
// from a single goroutine and fans work out afterwards.
func (q *SQSQueue) Dequeue(ctx context.Context) (Delivery, error) {
	for len(q.buffer) == 0 {
		if err := ctx.Err(); err != nil {
			return Delivery{}, err
		}
		resp, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(q.queueURL),
			MaxNumberOfMessages: sqsMaxBatch,
			WaitTimeSeconds:     sqsWaitSeconds,
			VisibilityTimeout:   q.visibilitySeconds,
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			return Delivery{}, fmt.Errorf("sqs receive: %w", err)
		}
		for _, msg := range resp.Messages {
			task, err := DecodeTask([]byte(aws.ToString(msg.Body)))
			if err != nil {
				// Poison message: drop it so it does not loop forever.
				q.deleteMessage(ctx, msg)
				continue
			}
			receipt := aws.ToString(msg.ReceiptHandle)
			q.buffer = append(q.buffer, Delivery{
				Task:         task,
				ReceiveCount: receiveCount(msg),
				ack: func(ackCtx context.Context) error {
					_, err := q.client.DeleteMessage(ackCtx, &sqs.DeleteMessageInput{
						QueueUrl:      aws.String(q.queueURL),
						ReceiptHandle: aws.String(receipt),
					})
					return err
				},
			})
		}
	}
	next := q.buffer[0]
	q.buffer = q.buffer[1:]
	return next, nil
}

func (q *SQSQueue) deleteMessage(ctx context.Context, msg sqstypes.Message) {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		return
	}
	_, _ = q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receipt),
	})
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 1
	}
	raw := msg.Attributes["ApproximateReceiveCount"]
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		return 1
	}
	return parsed
}

var (
	_ Producer = (*SQSQueue)(nil)
	_ Consumer = (*SQSQueue)(nil)
)
