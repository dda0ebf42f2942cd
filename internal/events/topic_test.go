package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicDeliversInRegistrationOrder(t *testing.T) {
	topic := NewTopic[int]()
	var got []string

	topic.Subscribe(func(v int) { got = append(got, "first") })
	topic.Subscribe(func(v int) { got = append(got, "second") })
	topic.Publish(1)

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestTopicUnsubscribe(t *testing.T) {
	topic := NewTopic[string]()
	var calls int

	unsubscribe := topic.Subscribe(func(string) { calls++ })
	topic.Publish("a")
	unsubscribe()
	topic.Publish("b")

	assert.Equal(t, 1, calls)
}
