package publisher_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nano-interactive/go-amqp-archive/publisher"
)

func TestExchangeTypeString(t *testing.T) {
	t.Parallel()
	assert := require.New(t)

	assert.Equal("direct", publisher.ExchangeTypeDirect.String())
	assert.Equal("fanout", publisher.ExchangeTypeFanout.String())
	assert.Equal("topic", publisher.ExchangeTypeTopic.String())
	assert.Equal("headers", publisher.ExchangeTypeHeader.String())
	assert.Panics(func() {
		_ = publisher.ExchangeType(4).String()
	})
}
