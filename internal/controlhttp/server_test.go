package controlhttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leandrodaf/midichrono/internal/engine"
	"github.com/leandrodaf/midichrono/internal/logger"
	"github.com/leandrodaf/midichrono/internal/surface"
	"github.com/leandrodaf/midichrono/internal/transporttest"
	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/leandrodaf/midichrono/sdk/timecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	chrono  *engine.Engine
	tr      *transporttest.Transport
	table   *surface.Table
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewZapLoggerFrom(zaptest.NewLogger(t))
	chrono, err := engine.New(contracts.ClientOptions{
		Logger:    log,
		Tempo:     120,
		FrameRate: timecode.Rate30,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = chrono.Close() })

	tr := transporttest.New("synth", "daw")
	table, err := surface.New(log, tr, chrono)
	require.NoError(t, err)
	t.Cleanup(func() { _ = table.Close() })

	return &fixture{
		chrono:  chrono,
		tr:      tr,
		table:   table,
		handler: New(log, chrono, table).Handler(),
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) State {
	t.Helper()
	var st State
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	return st
}

func TestGetState(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, State{
		State:    "stopped",
		TimeCode: "00:00:00.00",
		Rate:     "30",
		BarBeat:  "01.01.00",
		Tempo:    120,
	}, decodeState(t, rec))
}

func TestSeek(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/transport/seek", `{"tick":144}`)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeState(t, rec)
	assert.Equal(t, uint64(144), st.Tick)
	assert.Equal(t, "00:00:03.00", st.TimeCode)
	assert.Equal(t, "02.03.00", st.BarBeat)

	rec = f.do(t, http.MethodPost, "/transport/rewind", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decodeState(t, rec).Tick)
}

func TestSeekRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/transport/seek", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/transport/seek", `nope`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		f.do(t, http.MethodPost, "/transport/seek", `{"tick":98304}`).Code)
	assert.Zero(t, f.chrono.Snapshot().Tick)
}

func TestTempo(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/transport/tempo", `{"bpm":140}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 140, decodeState(t, rec).Tempo)

	assert.Equal(t, http.StatusUnprocessableEntity,
		f.do(t, http.MethodPut, "/transport/tempo", `{"bpm":10}`).Code)
	assert.Equal(t, 140, f.chrono.Snapshot().Tempo)
}

func TestStartStop(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/transport/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", decodeState(t, rec).State)

	rec = f.do(t, http.MethodPost, "/transport/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stopped", decodeState(t, rec).State)

	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodGet, "/transport/start", "").Code)
}

func TestDestinations(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/destinations/1", `{"clock":true,"mtc":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []surface.Row
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 2)
	assert.Equal(t, surface.Row{Index: 1, Name: "daw", Clock: true, Open: true}, rows[1])
	assert.Equal(t, 1, f.tr.OpenCount())

	rec = f.do(t, http.MethodGet, "/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	assert.True(t, rows[1].Clock)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPut, "/destinations/9", `{"clock":true}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPut, "/destinations/x", `{"clock":true}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/destinations/0", `[`).Code)
}

func TestClosedChrono(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.chrono.Close())

	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodPost, "/transport/start", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/transport/tempo", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestDestinationsAcrossGroupedTables(t *testing.T) {
	f := newFixture(t)
	log := logger.NewZapLoggerFrom(zaptest.NewLogger(t))
	peers := transporttest.New("127.0.0.1:57120")
	oscTable, err := surface.New(log, peers, f.chrono)
	require.NoError(t, err)
	t.Cleanup(func() { _ = oscTable.Close() })
	handler := New(log, f.chrono, surface.Group{f.table, oscTable}).Handler()

	req := httptest.NewRequest(http.MethodPut, "/destinations/2", strings.NewReader(`{"clock":true,"mtc":true}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []surface.Row
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 3)
	assert.Equal(t, surface.Row{Index: 2, Name: "127.0.0.1:57120", Clock: true, MTC: true, Open: true}, rows[2])
	assert.Equal(t, 1, peers.OpenCount())
	assert.Zero(t, f.tr.OpenCount())
}
