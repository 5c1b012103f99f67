package eventstore

import "context"

// Publisher emits committed-event envelopes to the message broker. mqx.Producer
// satisfies it; tests substitute in-process fakes.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error
}

// NopPublisher drops every message. Used when a deployment runs without a
// broker, e.g. local development against the in-memory stream.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte, []byte, map[string]string) error {
	return nil
}
