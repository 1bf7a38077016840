package archive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveAndRestoreRoundTrip(t *testing.T) {
	stored := make(map[string]ArchivedSession)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var record ArchivedSession
			require.NoError(t, json.NewDecoder(r.Body).Decode(&record))
			stored[record.Session.ID] = record
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			record, ok := stored["s1"]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(record)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx := context.Background()

	record := ArchivedSession{
		Session: SessionRecord{ID: "s1", Label: "refactor", Cwd: "/work", Provider: "claude"},
		Terminals: []TerminalRecord{
			{ID: "t1", Command: "claude", Cwd: "/work"},
		},
	}
	require.NoError(t, client.Archive(ctx, record))

	restored, err := client.Restore(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, record.Session, restored.Session)
	assert.Len(t, restored.Terminals, 1)
}

func TestRestoreNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Restore(context.Background(), "missing")
	assert.Error(t, err)
}

func TestArchiveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Archive(context.Background(), ArchivedSession{
		Session: SessionRecord{ID: "s1"},
	})
	assert.Error(t, err)
}
