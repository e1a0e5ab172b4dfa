package client_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doanphungtu/tudp-rn-debugger/interfaces/go/client"
	"github.com/doanphungtu/tudp-rn-debugger/internal/app"
	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/config"
	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/transport"
)

func TestClientRoundTrip(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "created")
	}))
	defer upstream.Close()

	cfg := config.Defaults()
	cfg.NotifyDelayMs = 5
	cfg.SelfTestURL = upstream.URL + "/selftest"
	var rt http.RoundTripper = http.DefaultTransport
	a := app.New(cfg, nil, transport.Var(&rt, "test"))
	defer a.Close()
	api := httptest.NewServer(a.Handler())
	defer api.Close()

	ctx := context.Background()
	c := client.New(api.URL + "/")

	info, err := c.Start(ctx, client.StartOptions{IgnoredHosts: []string{"ignored.invalid"}})
	require.NoError(t, err)
	assert.True(t, info.IsLogging)
	assert.Equal(t, "wrap", info.HookType)

	_, err = c.Start(ctx, client.StartOptions{})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "ALREADY_ACTIVE", apiErr.Code)

	resp, err := a.Client.Post(upstream.URL+"/items", "text/plain", bytes.NewBufferString("payload"))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	items, total, err := c.ListRequests(ctx, client.ListOptions{Method: "POST"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	got := items[0]
	assert.Equal(t, 201, *got.Status)
	assert.Equal(t, "payload", *got.RequestBody)
	assert.Equal(t, "created", *got.ResponseBody)
	assert.Equal(t, "completed", got.State)

	one, err := c.GetRequest(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, got.URL, one.URL)

	cmd, err := c.Curl(ctx, got.ID)
	require.NoError(t, err)
	assert.Contains(t, cmd, `-d "payload"`)

	var har bytes.Buffer
	require.NoError(t, c.ExportHAR(ctx, &har))
	assert.Contains(t, har.String(), `"entries"`)

	ok, err := c.SelfTest(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.ClearRequests(ctx))
	dbg, err := c.Debug(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, dbg.RequestCount)
	assert.Equal(t, []string{"ignored.invalid"}, dbg.IgnoredHosts)

	_, err = c.Stop(ctx)
	require.NoError(t, err)
	_, err = c.GetRequest(ctx, "missing")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
