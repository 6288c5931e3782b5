package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify_PostsPayload(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	driverID := uuid.New()
	c := notify.NewWebhookClient(server.URL, 5*time.Second)
	err := c.Notify(context.Background(), driverID, "You have been assigned job HD-2026-0042")
	require.NoError(t, err)

	assert.Equal(t, driverID.String(), got["driver_id"])
	assert.Equal(t, "You have been assigned job HD-2026-0042", got["message"])
}

func TestNotify_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := notify.NewWebhookClient(server.URL, 5*time.Second)
	err := c.Notify(context.Background(), uuid.New(), "hello")
	assert.ErrorIs(t, err, notify.ErrNotifyFailed)
}

func TestNotify_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	server.Close()

	c := notify.NewWebhookClient(server.URL, 5*time.Second)
	err := c.Notify(context.Background(), uuid.New(), "hello")
	assert.ErrorIs(t, err, notify.ErrNotifyFailed)
}
