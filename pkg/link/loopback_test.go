package link

import (
	"testing"
	"time"

	"github.com/itohio/hktelem/pkg/config"
	"github.com/itohio/hktelem/pkg/sensor"
	"github.com/itohio/hktelem/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Mux.Settle = 0
	cfg.Mock.SampleRate = 10 * time.Millisecond
	cfg.Mock.NoiseLevel = 0
	cfg.Mock.OrbitSwing = 0
	return cfg
}

func TestLoopback_Frames(t *testing.T) {
	lb := NewLoopback(testConfig())
	require.NoError(t, lb.Connect())
	defer lb.Close()

	assert.True(t, lb.IsConnected())
	assert.Error(t, lb.Connect())

	select {
	case rec := <-lb.Frames():
		assert.InDelta(t, 5.0, rec.Frame.Voltages[0], 0.01)
		assert.InDelta(t, 3.3, rec.Frame.Voltages[1], 0.01)
		assert.InDelta(t, 0.35, rec.Frame.Currents[0], 0.01)
		assert.InDelta(t, 298.15, rec.Frame.Temperatures[0], 0.5)
		assert.False(t, rec.Timestamp.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestLoopback_FailedChannelKeepsFrameFlowing(t *testing.T) {
	cfg := testConfig()
	ch, ok := status.ChannelOf(sensor.KindVoltage, 2)
	require.True(t, ok)
	cfg.Mock.FailChannels = []int{ch}

	lb := NewLoopback(cfg)
	require.NoError(t, lb.Connect())
	defer lb.Close()

	for i := 0; i < 3; i++ {
		select {
		case rec := <-lb.Frames():
			assert.Equal(t, 0.0, rec.Frame.Voltages[2])
			assert.InDelta(t, 3.7, rec.Frame.Voltages[3], 0.01)
		case <-time.After(5 * time.Second):
			t.Fatal("no frame received")
		}
	}
}

// TestLoopback_GracefulShutdown tests that the frames channel closes
// when Close() is called.
func TestLoopback_GracefulShutdown(t *testing.T) {
	lb := NewLoopback(testConfig())
	require.NoError(t, lb.Connect())

	frames := lb.Frames()

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range frames {
			received++
			if received == 3 {
				lb.Close()
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Frames channel did not close within timeout")
	}

	assert.GreaterOrEqual(t, received, 3)
	assert.False(t, lb.IsConnected())

	_, ok := <-frames
	assert.False(t, ok, "Channel should be closed")
	assert.NoError(t, lb.Close())
}

func TestLoopback_Reconnect(t *testing.T) {
	lb := NewLoopback(testConfig())
	require.NoError(t, lb.Connect())
	first := lb.Frames()
	require.NoError(t, lb.Close())

	require.NoError(t, lb.Connect())
	defer lb.Close()
	assert.NotEqual(t, first, lb.Frames())

	select {
	case <-lb.Frames():
	case <-time.After(5 * time.Second):
		t.Fatal("no frame after reconnect")
	}
}
