// internal/telemetry/telemetry_test.go
package telemetry

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), "shelfmark-test", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitExportsServiceName(t *testing.T) {
	var mu sync.Mutex
	var payload bytes.Buffer
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		io.Copy(&payload, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	endpoint := strings.TrimPrefix(srv.URL, "http://")
	shutdown, err := Init(context.Background(), "shelfmark-test", endpoint)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "test.span")
	span.End()

	// Shutdown flushes the batcher, so the export has happened by now.
	require.NoError(t, shutdown(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, payload.String(), "shelfmark-test",
		"exported spans must carry the service name resource")
}
