package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSender(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.TransferID == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewWebhookSender(time.Second)
	p := testTask("bob").Payload()

	require.NoError(t, s.Send(context.Background(), srv.URL, p))
	assert.Equal(t, p, got)

	p.TransferID = "fail"
	err := s.Send(context.Background(), srv.URL, p)
	assert.ErrorContains(t, err, "status 500")
}

func TestWebhookSender_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewWebhookSender(50*time.Millisecond).Send(context.Background(), srv.URL, testTask("bob").Payload())
	assert.Error(t, err)
}
