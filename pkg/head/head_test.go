package head

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-rsdk/pkg/confirm"
	"github.com/teslashibe/go-rsdk/pkg/protocol"
	"github.com/teslashibe/go-rsdk/pkg/sim"
	"github.com/teslashibe/go-rsdk/pkg/transport"
)

const prefix = "test"

func withSim(t *testing.T) (*transport.MemoryBus, *sim.Robot) {
	t.Helper()
	bus := transport.NewMemoryBus()
	t.Cleanup(func() { bus.Close() })

	robot, err := sim.New(bus, sim.Options{Prefix: prefix})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		robot.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return bus, robot
}

func newHead(t *testing.T, bus transport.Bus) *Head {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	h, err := New(ctx, bus, Options{Prefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestNew_ShutdownDuringBarrier(t *testing.T) {
	bus := transport.NewMemoryBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	h, err := New(ctx, bus, Options{Prefix: prefix})
	assert.Nil(t, h)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, bus.Subscribers(transport.NewTopics(prefix).HeadState()))
}

func TestNew_WaitsForFirstCompleteState(t *testing.T) {
	bus := transport.NewMemoryBus()
	defer bus.Close()
	topic := transport.NewTopics(prefix).HeadState()

	go func() {
		time.Sleep(20 * time.Millisecond)
		partial, _ := protocol.Encode(protocol.TypeHeadState, map[string]any{"pan": 9.0})
		bus.Publish(topic, partial)

		time.Sleep(20 * time.Millisecond)
		full, _ := protocol.EncodeHeadState(protocol.HeadState{Pan: 0.25, Nodding: true})
		bus.Publish(topic, full)
	}()

	h := newHead(t, bus)

	s, err := h.State()
	require.NoError(t, err)
	assert.Equal(t, 0.25, s.Pan)
	assert.True(t, s.Nodding)
	assert.False(t, s.Panning)
}

func TestSetPan_Converges(t *testing.T) {
	bus, _ := withSim(t)
	h := newHead(t, bus)

	res, err := h.SetPan(context.Background(), 0.5, PanOptions{Timeout: 2 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, confirm.Converged, res.Outcome)
	assert.Greater(t, res.Publishes, 1)

	pan, err := h.Pan()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pan, h.tolerance)
}

func TestSetPan_FireAndForget(t *testing.T) {
	bus, robot := withSim(t)
	h := newHead(t, bus)

	res, err := h.SetPan(context.Background(), -0.3, PanOptions{})
	require.NoError(t, err)
	assert.Equal(t, confirm.FireAndForget, res.Outcome)
	assert.Equal(t, 1, res.Publishes)

	assert.Eventually(t, func() bool {
		return robot.HeadState().Pan == -0.3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSetPan_TimesOut(t *testing.T) {
	bus, _ := withSim(t)
	h := newHead(t, bus)

	res, err := h.SetPan(context.Background(), 1.0, PanOptions{Speed: 1, Timeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, errors.Is(err, confirm.ErrTimedOut))
	assert.Equal(t, 10, res.Ticks)
	assert.Contains(t, err.Error(), "head pan to 1.000 rad")
}

func TestSetPan_Shutdown(t *testing.T) {
	bus, _ := withSim(t)
	h := newHead(t, bus)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	res, err := h.SetPan(ctx, 1.0, PanOptions{Speed: 1, Timeout: 10 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, confirm.Shutdown, res.Outcome)
}

func TestSetPan_InvalidSpeed(t *testing.T) {
	bus, _ := withSim(t)
	h := newHead(t, bus)

	for _, speed := range []int{-1, 101} {
		_, err := h.SetPan(context.Background(), 0, PanOptions{Speed: speed})
		assert.Error(t, err, "speed %d", speed)
	}
}

func TestCommandNod(t *testing.T) {
	bus, _ := withSim(t)
	h := newHead(t, bus)

	res, err := h.CommandNod(context.Background())
	require.NoError(t, err)
	assert.Equal(t, confirm.Converged, res.Outcome)

	nodding, err := h.Nodding()
	require.NoError(t, err)
	assert.True(t, nodding)
}

func TestCommandNod_TimesOutWithoutRobot(t *testing.T) {
	bus := transport.NewMemoryBus()
	defer bus.Close()
	topic := transport.NewTopics(prefix).HeadState()

	go func() {
		data, _ := protocol.EncodeHeadState(protocol.HeadState{})
		for n := 0; n < 5; n++ {
			bus.Publish(topic, data)
			time.Sleep(5 * time.Millisecond)
		}
	}()
	h := newHead(t, bus)

	res, err := h.CommandNod(context.Background())
	assert.ErrorIs(t, err, confirm.ErrTimedOut)
	assert.Equal(t, 100, res.Ticks)
	assert.Equal(t, 101, res.Publishes)
}
