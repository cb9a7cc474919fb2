package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("records", func(t *testing.T) {
		m := New(prometheus.NewRegistry())
		m.ConnectionOpened()
		m.ConnectionOpened()
		m.ConnectionClosed()
		m.RequestDispatched("GET", "HTTP/1.1", 0)
		m.ParseError("request_line")
		m.Reused(true)
		m.Reused(false)
		m.Reused(false)

		require.Equal(t, float64(1), testutil.ToFloat64(m.ActiveConnections))
		require.Equal(t, float64(2), testutil.ToFloat64(m.TotalConnections))
		require.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "HTTP/1.1")))
		require.Equal(t, float64(1), testutil.ToFloat64(m.ParseErrors.WithLabelValues("request_line")))
		require.Equal(t, float64(2), testutil.ToFloat64(m.KeepAlive.WithLabelValues("close")))
	})

	t.Run("nil is a no-op", func(t *testing.T) {
		var m *Metrics
		require.NotPanics(t, func() {
			m.ConnectionOpened()
			m.ConnectionClosed()
			m.RequestDispatched("GET", "HTTP/1.0", 10)
			m.ParseError("headers")
			m.Reused(true)
		})
	})
}
