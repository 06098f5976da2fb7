package executor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compasview/internal/apiclient"
	"compasview/internal/scene"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second, nil)
}

func TestExecuteSuccess(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/execute", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Box.from_width_height_depth(1, 1, 1)", body["code"])
		_, _ = w.Write([]byte(`{
			"success": true,
			"result": "Box(...)",
			"output": "hi\n",
			"error": "",
			"geometry": [
				{"dtype": "compas.geometry/Box", "guid": "b1",
				 "data": {"xsize": 1, "ysize": 1, "zsize": 1, "frame": {"point": [1, 2, 3], "xaxis": [1, 0, 0], "yaxis": [0, 1, 0]}}}
			]
		}`))
	})

	res, err := client.Execute(context.Background(), "Box.from_width_height_depth(1, 1, 1)")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "hi\n", res.Output)
	assert.Equal(t, "Box(...)", res.Value)
	require.Len(t, res.Objects, 1)
	assert.Equal(t, "b1", res.Objects[0].ID)
	assert.Equal(t, scene.Vec3{1, 2, 3}, res.Objects[0].Placement.Position)
}

func TestExecuteNoneResultIsEmpty(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "result": "None", "output": "", "geometry": []}`))
	})
	res, err := client.Execute(context.Background(), "x = 1")
	require.NoError(t, err)
	assert.Empty(t, res.Value)
	assert.Empty(t, res.Objects)
}

func TestExecuteApplicationError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "Execution error: name 'foo' is not defined", "error": "name 'foo' is not defined"}`))
	})
	_, err := client.Execute(context.Background(), "foo")
	require.Error(t, err)
	var app *apiclient.ApplicationError
	require.True(t, errors.As(err, &app))
	assert.Equal(t, "Execution error: name 'foo' is not defined", app.Message)
	assert.True(t, apiclient.IsApplication(err))
}

func TestExecuteApplicationErrorFallsBackToErrorField(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "error": "boom"}`))
	})
	_, err := client.Execute(context.Background(), "x")
	assert.EqualError(t, err, "boom")
}

func TestExecuteTransportError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail": "kaput"}`))
	})
	_, err := client.Execute(context.Background(), "x")
	var transport *apiclient.TransportError
	require.True(t, errors.As(err, &transport))
	assert.Equal(t, http.StatusInternalServerError, transport.Status)
	assert.Contains(t, err.Error(), "kaput")
	assert.False(t, apiclient.IsApplication(err))
}

func TestExecuteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 200*time.Millisecond, nil).Execute(context.Background(), "x")
	var transport *apiclient.TransportError
	require.True(t, errors.As(err, &transport))
	assert.Zero(t, transport.Status)
	assert.Equal(t, "execute", transport.Op)
}

func TestGeometryNormalizesObjects(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/geometry", r.URL.Path)
		_, _ = w.Write([]byte(`{"objects": [[0, 2, 0], {"radius": 1, "frame": {"point": [3, 0, 0]}}]}`))
	})
	descs, err := client.Geometry(context.Background())
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.Equal(t, "Point", descs[0].Kind)
	assert.Equal(t, "Sphere", descs[1].Kind)
	assert.Equal(t, scene.Vec3{3, 0, 0}, descs[1].Placement.Position)
}

func TestClearResetHealth(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/api/clear":
			_, _ = w.Write([]byte(`{"success": true, "message": "Scene cleared"}`))
		case "/api/reset":
			_, _ = w.Write([]byte(`{"success": true, "message": "Environment reset"}`))
		case "/api/health":
			_, _ = w.Write([]byte(`{"status": "ok", "message": "COMPAS Web Viewport is running!"}`))
		}
	})
	ctx := context.Background()

	msg, err := client.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Scene cleared", msg)

	msg, err = client.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Environment reset", msg)

	msg, err = client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "COMPAS Web Viewport is running!", msg)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"POST /api/clear", "POST /api/reset", "GET /api/health"}, paths)
}

func TestHealthDegraded(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "starting"}`))
	})
	_, err := client.Health(context.Background())
	assert.True(t, apiclient.IsApplication(err))
}

func TestExecuteHonorsContext(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Execute(ctx, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
