package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobsites/imobsites-panel/pkg/config"
)

func TestNew(t *testing.T) {
	srv := New(config.ServerConfig{Host: "127.0.0.1", ReadTimeout: time.Second}, 8081, http.NotFoundHandler())
	assert.Equal(t, "127.0.0.1:8081", srv.Addr)
	assert.Equal(t, time.Second, srv.ReadTimeout)
}

func TestRun_StopsWhenContextIsDone(t *testing.T) {
	srv := New(config.ServerConfig{Host: "127.0.0.1"}, 0, http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
