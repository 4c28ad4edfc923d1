package queue

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_NoBrokerIsNil(t *testing.T) {
	p := NewProducer("", "rote.changes", "", "")
	assert.Nil(t, p)

	// a nil producer is safe to use
	assert.NoError(t, p.PublishMessage(context.Background(), []byte("k"), []byte("v")))
	assert.NoError(t, p.Close())
}

func TestNewProducer_SASLOnlyWithCredentials(t *testing.T) {
	plain := NewProducer("localhost:9092", "rote.changes", "", "")
	require.NotNil(t, plain)
	transport, ok := plain.writer.Transport.(*kafka.Transport)
	require.True(t, ok)
	assert.Nil(t, transport.SASL)
	assert.Nil(t, transport.TLS)
	assert.IsType(t, &kafka.Hash{}, plain.writer.Balancer)
	assert.Equal(t, "rote.changes", plain.writer.Topic)

	secured := NewProducer("broker:9093", "rote.changes", "svc", "secret")
	require.NotNil(t, secured)
	transport, ok = secured.writer.Transport.(*kafka.Transport)
	require.True(t, ok)
	assert.NotNil(t, transport.SASL)
	assert.NotNil(t, transport.TLS)
}
