package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockQueueConsumer is a mock implementation of queue.QueueConsumer
type MockQueueConsumer struct {
	mock.Mock
}

func (m *MockQueueConsumer) ReceiveMessages(ctx context.Context, input *awssqs.ReceiveMessageInput) (*awssqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*awssqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockQueueConsumer) DeleteMessage(ctx context.Context, input *awssqs.DeleteMessageInput) (*awssqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*awssqs.DeleteMessageOutput), args.Error(1)
}

func (m *MockQueueConsumer) QueueURL() string {
	args := m.Called()
	return args.String(0)
}

func TestReceiver_ForwardsMessages(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockConsumer.On("QueueURL").Return("http://localhost:9324/queue/records")

	messages := []types.Message{
		{MessageId: aws.String("m1"), Body: aws.String(`{"kind":"exposure"}`)},
		{MessageId: aws.String("m2"), Body: aws.String(`{"kind":"event"}`)},
	}

	ctx, cancel := context.WithCancel(context.Background())

	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&awssqs.ReceiveMessageOutput{Messages: messages}, nil).Once()
	// After the first batch, stop the receiver from the consumer side.
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Run(func(args mock.Arguments) { cancel() }).
		Return(&awssqs.ReceiveMessageOutput{}, nil)

	receiver := NewReceiver(mockConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 0,
		BufferSize:      10,
	}, zap.NewNop())

	out := make(chan types.Message, 10)
	done := make(chan struct{})
	go func() {
		receiver.Start(ctx, out)
		close(done)
	}()

	var received []types.Message
	for msg := range out {
		received = append(received, msg)
	}
	<-done

	assert.Len(t, received, 2)
	assert.Equal(t, "m1", aws.ToString(received[0].MessageId))
	assert.Equal(t, "m2", aws.ToString(received[1].MessageId))
}

func TestReceiver_ContinuesAfterReceiveError(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockConsumer.On("QueueURL").Return("http://localhost:9324/queue/records")

	ctx, cancel := context.WithCancel(context.Background())

	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(nil, errors.New("throttled")).Once()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&awssqs.ReceiveMessageOutput{Messages: []types.Message{
			{MessageId: aws.String("m1"), Body: aws.String(`{}`)},
		}}, nil).Once()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Run(func(args mock.Arguments) { cancel() }).
		Return(&awssqs.ReceiveMessageOutput{}, nil)

	receiver := NewReceiver(mockConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 0,
		BufferSize:      10,
	}, zap.NewNop())

	out := make(chan types.Message, 10)
	done := make(chan struct{})
	go func() {
		receiver.Start(ctx, out)
		close(done)
	}()

	var received []types.Message
	for msg := range out {
		received = append(received, msg)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("receiver did not shut down")
	}

	assert.Len(t, received, 1)
}

func TestReceiver_StopsOnContextCancel(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockConsumer.On("QueueURL").Return("http://localhost:9324/queue/records").Maybe()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).
		Return(&awssqs.ReceiveMessageOutput{}, nil).Maybe()

	receiver := NewReceiver(mockConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 0,
		BufferSize:      10,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan types.Message, 1)
	done := make(chan struct{})
	go func() {
		receiver.Start(ctx, out)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("receiver did not stop on context cancel")
	}
}
