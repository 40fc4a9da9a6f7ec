package llm_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/aretw0/gleaner/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Complete(t *testing.T) {
	srv := chatServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"{\"title\": \"Hello\"}"}}]}`)

	client := llm.NewClient("test-model", "test-key", llm.WithBaseURL(srv.URL))

	out, err := client.Complete(context.Background(), "extract the title")
	require.NoError(t, err)
	assert.Equal(t, `{"title": "Hello"}`, out)
}

func TestClient_Complete_ServerErrorIsTransient(t *testing.T) {
	srv := chatServer(t, http.StatusBadGateway, "upstream sad")
	client := llm.NewClient("test-model", "test-key", llm.WithBaseURL(srv.URL))

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, domain.Transient, domain.Classify(err))
}

func TestClient_Complete_RateLimitIsTransient(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "slow down")
	client := llm.NewClient("test-model", "test-key", llm.WithBaseURL(srv.URL))

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, domain.Transient, domain.Classify(err))
}

func TestClient_Complete_AuthErrorIsFatal(t *testing.T) {
	srv := chatServer(t, http.StatusUnauthorized, "bad key")
	client := llm.NewClient("test-model", "test-key", llm.WithBaseURL(srv.URL))

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, domain.Fatal, domain.Classify(err))
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"choices":[]}`)
	client := llm.NewClient("test-model", "test-key", llm.WithBaseURL(srv.URL))

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, domain.Transient, domain.Classify(err))
}

type countingModel struct {
	calls atomic.Int64
}

func (m *countingModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls.Add(1)
	return "ok", nil
}

func TestRateLimited_Blocks(t *testing.T) {
	inner := &countingModel{}
	limited := llm.NewRateLimited(inner, 50, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := limited.Complete(context.Background(), "hi")
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	assert.Equal(t, int64(3), inner.calls.Load())
	// Burst of 1 at 50 rps: calls 2 and 3 each wait ~20ms.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestRateLimited_CanceledContext(t *testing.T) {
	inner := &countingModel{}
	limited := llm.NewRateLimited(inner, 0.001, 1)

	_, err := limited.Complete(context.Background(), "first") // consumes the burst
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = limited.Complete(ctx, "second")
	require.Error(t, err)
	assert.Equal(t, int64(1), inner.calls.Load())
}
