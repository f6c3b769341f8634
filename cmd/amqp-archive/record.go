package main

import (
	"fmt"
	"time"

	"github.com/nano-interactive/go-amqp-archive/internal/config"
	"github.com/nano-interactive/go-amqp-archive/serializer"
)

// Record is the message shape the CLI reads, writes and moves over AMQP.
type Record struct {
	ID        string    `json:"id" xml:"id"`
	Source    string    `json:"source" xml:"source"`
	Timestamp time.Time `json:"timestamp" xml:"timestamp"`
	Tags      []string  `json:"tags,omitempty" xml:"tags>tag"`
	Count     int64     `json:"count" xml:"count"`
	Payload   string    `json:"payload,omitempty" xml:"payload,omitempty"`
}

// serializerFor resolves json or any archive format name or alias.
func serializerFor(name string) (serializer.Serializer[Record], error) {
	if name == config.FormatJSON {
		return serializer.JSON[Record]{}, nil
	}

	f, err := serializer.ParseFormat[Record](name)
	if err != nil {
		return nil, fmt.Errorf("format %q: %w", name, err)
	}

	return f, nil
}
