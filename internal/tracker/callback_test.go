package tracker

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCallback_PostsEvents(t *testing.T) {
	var (
		mu       sync.Mutex
		payloads []CallbackPayload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var p CallbackPayload
		require.NoError(t, json.Unmarshal(body, &p))

		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := New(NewHTTPCallback(srv.URL, srv.Client(), logr.Discard()))
	tr.StartRun("env-on")
	tr.StartStep(true, "Download CoreOS OVA", "arrow_down_small")
	tr.SetProgressTotal(10)
	tr.Tick(10)
	tr.FinishStepFailed("nope")
	tr.FinishRun()

	mu.Lock()
	defer mu.Unlock()

	types := make([]EventType, len(payloads))
	for i, p := range payloads {
		types[i] = p.Type
		assert.Equal(t, tr.ID(), p.RunID)
	}
	assert.Equal(t, []EventType{
		EventRunStarted,
		EventStepStarted,
		EventStepFinished,
		EventStepStarted,
		EventStepFailed,
		EventRunFinished,
	}, types)

	failed := payloads[4]
	require.NotNil(t, failed.Step)
	assert.Equal(t, 2, failed.Step.Index)
	assert.Equal(t, "failed", failed.Step.Outcome)
	assert.Equal(t, "nope", failed.Step.Message)
	assert.Nil(t, payloads[0].Step)
}

func TestHTTPCallback_FailuresAreLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var logged []string
	log := funcr.New(func(prefix, args string) {
		logged = append(logged, args)
	}, funcr.Options{})

	tr := New(NewHTTPCallback(srv.URL, srv.Client(), log))
	tr.StartStep(false, "Connect to VCenter", "desktop_computer")
	tr.FinishStep()

	require.Len(t, logged, 2)
	assert.Contains(t, logged[0], "callback delivery failed")
	assert.Contains(t, logged[0], "status 500")
}
