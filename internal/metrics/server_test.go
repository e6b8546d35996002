package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_StartAndShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:0", zerolog.Nop())

	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}

func TestServer_BindFailureIsSynchronous(t *testing.T) {
	s := NewServer("256.256.256.256:99999", zerolog.Nop())

	assert.Error(t, s.Start())
}

func TestServer_ShutdownWithoutStartIsNoop(t *testing.T) {
	s := NewServer("127.0.0.1:0", zerolog.Nop())
	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestGauges_AreRegistered(t *testing.T) {
	// promauto registration panics on duplicates at init time, so reaching
	// here means the collectors registered cleanly; exercise them once.
	TotalTasks.WithLabelValues("OTT").Set(10)
	CompletedTasks.WithLabelValues("OTT").Set(3)
	ResultsEmitted.WithLabelValues("OTT").Add(1)
	ElapsedSeconds.WithLabelValues("OTT").Set(1.5)
}
