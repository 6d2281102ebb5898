package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "voicegate/pkg/domain"
	audit "voicegate/pkg/platform/audit"
)

func TestPublisher(t *testing.T) {
	profileID := id.NewProfileID()

	t.Run("sync publisher appends immediately", func(t *testing.T) {
		sink := NewMemorySink()
		p := NewPublisher(sink)

		require.NoError(t, p.Emit(context.Background(), audit.Event{ProfileID: profileID, Action: "profile_locked"}))

		events := sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, "profile_locked", events[0].Action)
	})

	t.Run("async publisher drains on close", func(t *testing.T) {
		sink := NewMemorySink()
		p := NewPublisher(sink, WithAsyncBuffer(4))

		for range 10 {
			require.NoError(t, p.Emit(context.Background(), audit.Event{ProfileID: profileID, Action: "verification_decided"}))
		}
		p.Close()

		assert.Len(t, sink.Events(), 10)
	})
}
