package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	srv := New(":9090", http.NewServeMux(), 30*time.Second)

	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 30*time.Second, srv.ReadTimeout)
	// Write timeout must outlast the middleware request deadline.
	assert.Greater(t, srv.WriteTimeout, srv.ReadTimeout)
}
