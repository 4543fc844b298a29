package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/donation-box/internal/controller"
	"github.com/sweeney/donation-box/internal/event"
	"github.com/sweeney/donation-box/internal/ledger"
	"github.com/sweeney/donation-box/internal/mode"
	"github.com/sweeney/donation-box/internal/status"
)

type fakeHistory struct {
	entries []ledger.Entry
	err     error
	limit   int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]ledger.Entry, error) {
	f.limit = limit
	return f.entries, f.err
}

func newTracker() *status.Tracker {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := status.NewTracker(start, status.Config{
		PollMs:      10,
		CooldownMs:  300,
		HeartbeatMs: 30000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		LEDDriver:   "ws281x",
		LEDCount:    6,
	})
	tr.SetClock(func() time.Time { return start.Add(time.Hour + 2*time.Minute + 3*time.Second) })
	tr.SetModes([]status.ModeView{
		{Info: mode.Info{Name: "Static Breathing", Description: "Gentle breathing", Version: "v1.0.0"}, EffectMs: 3000},
		{Info: mode.Info{Name: "Chase Light", Version: "v1.0.0"}, EffectMs: 2500},
	})
	return tr
}

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *status.Tracker) {
	t.Helper()
	tr := newTracker()
	ts := httptest.NewServer(New(":0", tr, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func post(t *testing.T, url string, accept string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, nil)
	require.NoError(t, err)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update("Chase Light", 1, "ACTIVE_NORMAL", event.Counts{Donations: 5, ModeChanges: 2}, false)
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var sj status.StatusJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sj))
	assert.Equal(t, "Chase Light", sj.Status.Mode)
	assert.Equal(t, 1, sj.Status.Index)
	assert.Len(t, sj.Status.Modes, 2)
	assert.Equal(t, 5, sj.Status.Counts.Donations)
	assert.True(t, sj.Status.MQTT.Connected)
	assert.Equal(t, int64(3723), sj.Status.UptimeSeconds)
}

func TestIndexPage(t *testing.T) {
	ts, tr := newTestServer(t, WithSwitcher(controller.NewCommands(1)))
	tr.Update("Static Breathing", 0, "ACTIVE_EFFECT", event.Counts{Donations: 1}, true)
	tr.SetAudio("ready")

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	body := buf.String()

	for _, want := range []string{
		"<title>Donation Box</title>",
		"Static Breathing",
		"Chase Light",
		"ACTIVE_EFFECT",
		"blocked",
		"1h 2m 3s",
		`action="/api/mode/1"`,
		"next mode",
		"ready",
	} {
		assert.Contains(t, body, want)
	}
}

func TestIndexPageWithoutControls(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/index.html")
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := new(strings.Builder)
	io.Copy(buf, resp.Body)
	assert.NotContains(t, buf.String(), "next mode")
}

func TestUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSwitchQueuesCommand(t *testing.T) {
	q := controller.NewCommands(4)
	ts, _ := newTestServer(t, WithSwitcher(q))

	resp := post(t, ts.URL+"/api/mode/1", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["queued"])
	assert.Equal(t, controller.Command{Index: 1}, <-q)

	resp = post(t, ts.URL+"/api/mode/next", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, controller.Command{Next: true}, <-q)
}

func TestSwitchValidation(t *testing.T) {
	q := controller.NewCommands(4)
	ts, _ := newTestServer(t, WithSwitcher(q))

	assert.Equal(t, http.StatusBadRequest, post(t, ts.URL+"/api/mode/abc", "").StatusCode)
	assert.Equal(t, http.StatusNotFound, post(t, ts.URL+"/api/mode/2", "").StatusCode)
	assert.Equal(t, http.StatusNotFound, post(t, ts.URL+"/api/mode/-1", "").StatusCode)
	assert.Empty(t, q, "nothing queued")
}

func TestSwitchBusy(t *testing.T) {
	q := controller.NewCommands(1)
	ts, _ := newTestServer(t, WithSwitcher(q))

	assert.Equal(t, http.StatusAccepted, post(t, ts.URL+"/api/mode/next", "").StatusCode)
	assert.Equal(t, http.StatusServiceUnavailable, post(t, ts.URL+"/api/mode/next", "").StatusCode)
}

func TestSwitchFromBrowserRedirects(t *testing.T) {
	q := controller.NewCommands(1)
	ts, _ := newTestServer(t, WithSwitcher(q))

	resp := post(t, ts.URL+"/api/mode/0", "text/html,application/xhtml+xml")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Len(t, q, 1)
}

func TestSwitchDisabled(t *testing.T) {
	ts, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, post(t, ts.URL+"/api/mode/next", "").StatusCode)
}

func TestGetOnSwitchNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, WithSwitcher(controller.NewCommands(1)))
	resp, err := http.Get(ts.URL + "/api/mode/next")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHistory(t *testing.T) {
	h := &fakeHistory{entries: []ledger.Entry{
		{ID: 2, Kind: ledger.KindDonation, Mode: "Chase Light"},
		{ID: 1, Kind: ledger.KindModeChange, Mode: "Chase Light", From: "none"},
	}}
	ts, _ := newTestServer(t, WithHistory(h))

	resp, err := http.Get(ts.URL + "/api/history?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, h.limit)

	var body struct {
		History []ledger.Entry `json:"history"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.History, 2)
	assert.Equal(t, "donation", body.History[0].Kind)
}

func TestHistoryErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "disabled without a ledger")

	ts, _ = newTestServer(t, WithHistory(&fakeHistory{err: errors.New("disk")}))
	resp, err = http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/history?limit=x")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryEmptyIsArray(t *testing.T) {
	ts, _ := newTestServer(t, WithHistory(&fakeHistory{}))
	resp, err := http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(strings.Builder)
	io.Copy(buf, resp.Body)
	assert.JSONEq(t, `{"history":[]}`, buf.String())
}
