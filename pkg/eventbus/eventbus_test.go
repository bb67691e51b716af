package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type pingEvent struct{}

func (pingEvent) Name() string { return "ping" }

func TestPublish_RunsEverySubscriber(t *testing.T) {
	bus := New(zap.NewNop())
	var calls int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("ping", func(ctx context.Context, e Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}
	bus.Subscribe("other", func(ctx context.Context, e Event) error {
		t.Error("listener for another event must not run")
		return nil
	})

	bus.Publish(context.Background(), pingEvent{})
	bus.Wait()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPublish_ListenerFailuresAreContained(t *testing.T) {
	bus := New(zap.NewNop())
	var ok int32
	bus.Subscribe("ping", func(ctx context.Context, e Event) error { return errors.New("boom") })
	bus.Subscribe("ping", func(ctx context.Context, e Event) error { panic("bad listener") })
	bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		atomic.AddInt32(&ok, 1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, pingEvent{})
	cancel()
	bus.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&ok))
}
