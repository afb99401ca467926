package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunchhieng/coursetree/internal/httpserver/deps"
	"github.com/bunchhieng/coursetree/internal/logger"
	"github.com/bunchhieng/coursetree/internal/model"
	"github.com/bunchhieng/coursetree/internal/storage"
)

func setupTestServer(t *testing.T) (*httptest.Server, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ts := httptest.NewServer(NewRouter(deps.Deps{
		Logger:    logger.NewNop(),
		Store:     store,
		StartTime: time.Now(),
		Version:   "test",
	}))
	t.Cleanup(ts.Close)
	return ts, store
}

func TestHealthz(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["store"])
	assert.Equal(t, "test", body["version"])
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-cache")
}

func TestHealthzReportsUnavailableStore(t *testing.T) {
	ts, store := setupTestServer(t)
	require.NoError(t, store.Close())

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unavailable", body["store"])
}

func TestHTTPStorageRoundTrip(t *testing.T) {
	ts, _ := setupTestServer(t)
	client, err := storage.NewHTTPStorage(ts.URL, ts.Client())
	require.NoError(t, err)
	ctx := context.Background()

	id, err := client.Create(ctx, []byte(`{"title":"Remote","courses":[]}`))
	require.NoError(t, err)
	assert.True(t, model.ValidateTreeID(id))

	raw, err := client.Read(ctx, id)
	require.NoError(t, err)
	var doc model.TreeData
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Remote", doc.Title)

	require.NoError(t, client.Update(ctx, id, []byte(`{"title":"Renamed","likes":3,"courses":[]}`)))
	raw, err = client.Read(ctx, id)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Renamed", doc.Title)
	assert.Equal(t, 3, doc.Likes)

	list, err := client.List(ctx, storage.ListOptions{Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
}

func TestHTTPStorageNotFound(t *testing.T) {
	ts, _ := setupTestServer(t)
	client, err := storage.NewHTTPStorage(ts.URL, ts.Client())
	require.NoError(t, err)

	_, err = client.Read(context.Background(), "nosuchtree")
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = client.Update(context.Background(), "nosuchtree", []byte(`{"courses":[]}`))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestWritesAreNormalized(t *testing.T) {
	ts, store := setupTestServer(t)

	legacy := `[{"id":"a","name":"Calc","year":1,"status":"completed","url":"https://www.example.com/calc"}]`
	resp, err := http.Post(ts.URL+"/api/trees", "application/json", strings.NewReader(legacy))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created storage.CreateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	raw, err := store.Read(context.Background(), created.ID)
	require.NoError(t, err)
	var doc model.TreeData
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, model.DefaultTitle, doc.Title)
	require.Len(t, doc.Courses[0].Resources, 1)
	assert.Equal(t, "example.com", doc.Courses[0].Resources[0].Title)
}

func TestInvalidWritesRejected(t *testing.T) {
	ts, _ := setupTestServer(t)

	for _, body := range []string{`hello`, `12`, `{"courses": [`} {
		resp, err := http.Post(ts.URL+"/api/trees", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %s", body)
	}
}

func TestOutOfRangeFieldsAreClampedOnWrite(t *testing.T) {
	ts, store := setupTestServer(t)
	client, err := storage.NewHTTPStorage(ts.URL, ts.Client())
	require.NoError(t, err)
	ctx := context.Background()

	id, err := client.Create(ctx, []byte(`{"title":"Old","courses":[]}`))
	require.NoError(t, err)

	// Shape of a record written before years were required.
	legacy := `[{"id":"a","name":"Calc","status":"completed"},
		{"id":"b","name":"Thesis","year":7,"status":"reviewed","rating":9}]`
	require.NoError(t, client.Update(ctx, id, []byte(legacy)))

	raw, err := store.Read(ctx, id)
	require.NoError(t, err)
	var doc model.TreeData
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Courses, 2)
	assert.Equal(t, model.MinYear, doc.Courses[0].Year)
	assert.Equal(t, model.MaxYear, doc.Courses[1].Year)
	require.NotNil(t, doc.Courses[1].Rating)
	assert.Equal(t, 5, *doc.Courses[1].Rating)
}

func TestListLimitValidation(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/api/trees?limit=0")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := setupTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/trees", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://trees.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
