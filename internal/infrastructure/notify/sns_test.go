package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gig-escrow/internal/event"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestSNSPublisher_Publish(t *testing.T) {
	client := &fakeSNS{}
	pub := newSNSPublisherWithClient(client, "arn:aws:sns:us-east-1:123456789012:escrow")
	evt := event.Event{
		Type:         event.TypeEscrowReleased,
		JobID:        uuid.New(),
		JobStatus:    "completed",
		EscrowStatus: "released",
		BudgetAmount: 500,
		Timestamp:    time.Now().UTC(),
	}

	require.NoError(t, pub.Publish(context.Background(), evt))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:escrow", aws.ToString(in.TopicArn))
	assert.Equal(t, "escrow.released", aws.ToString(in.MessageAttributes["event_type"].StringValue))
	assert.Equal(t, evt.JobID.String(), aws.ToString(in.MessageAttributes["job_id"].StringValue))

	var got event.Event
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &got))
	assert.Equal(t, evt.JobID, got.JobID)
	assert.Equal(t, 500.0, got.BudgetAmount)
}

func TestSNSPublisher_WrapsError(t *testing.T) {
	boom := errors.New("throttled")
	pub := newSNSPublisherWithClient(&fakeSNS{err: boom}, "arn")

	err := pub.Publish(context.Background(), event.Event{Type: event.TypeJobHired, JobID: uuid.New()})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "job.hired")
}
