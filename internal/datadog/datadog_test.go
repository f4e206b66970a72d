package datadog

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/light-meter/internal/config"
	"github.com/thatsimonsguy/light-meter/internal/env"
)

func TestMetricsAreNoOpsWhenDisabled(t *testing.T) {
	env.Cfg = &config.Config{}
	dogstatsd = nil

	InitMetrics()
	assert.Nil(t, dogstatsd)

	Gauge("lux", 1)
	Incr("events")
	Timing("cycle", time.Millisecond)
	Flush()
}

func TestGaugeReachesAgent(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	env.Cfg = &config.Config{
		EnableDatadog: true,
		DDAgentAddr:   conn.LocalAddr().String(),
		DDNamespace:   "light_meter.",
		DDTags:        []string{"site:test"},
	}
	InitMetrics()
	require.NotNil(t, dogstatsd)
	defer func() {
		dogstatsd.Close()
		dogstatsd = nil
	}()

	Gauge("ev", 7, "mode:aperture")
	Flush()

	buf := make([]byte, 1024)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)

	packet := string(buf[:n])
	assert.True(t, strings.HasPrefix(packet, "light_meter.ev:7|g"), packet)
	assert.Contains(t, packet, "mode:aperture")
	assert.Contains(t, packet, "site:test")
}
