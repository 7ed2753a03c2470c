package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ladderbot/src/controller"
	"ladderbot/src/model"

	"github.com/stretchr/testify/assert"
)

type mockPositionReader struct {
	position *model.Position
	capital  *model.Capital
	err      error
}

func (m *mockPositionReader) GetPosition(ctx context.Context, pair string) (*model.Position, error) {
	return m.position, m.err
}

func (m *mockPositionReader) GetCapital(ctx context.Context, pair string) (*model.Capital, error) {
	return m.capital, m.err
}

type mockReporter struct {
	snap controller.Snapshot
	err  error
}

func (m *mockReporter) Report(ctx context.Context) (controller.Snapshot, error) {
	return m.snap, m.err
}

func TestPositionHandler_Success(t *testing.T) {
	repo := &mockPositionReader{
		position: &model.Position{Pair: "KASUSDC", Qty: 120, Avg: 0.051},
		capital:  &model.Capital{Pair: "KASUSDC", LimitUSD: 1000, AvailableUSD: 42.5, RealizedPnL: 1.25},
	}

	rr := httptest.NewRecorder()
	PositionHandler(repo, "KASUSDC").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/position", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var body PositionResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 120.0, body.Position.Qty)
	assert.Equal(t, 0.051, body.Position.Avg)
	assert.Equal(t, 42.5, body.Capital.AvailableUSD)
	assert.Equal(t, 1.25, body.Capital.RealizedPnL)
}

func TestPositionHandler_EmptyLedger(t *testing.T) {
	rr := httptest.NewRecorder()
	PositionHandler(&mockPositionReader{}, "KASUSDC").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/position", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var body PositionResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "KASUSDC", body.Position.Pair)
	assert.Equal(t, 0.0, body.Position.Qty)
}

func TestPositionHandler_RepoError(t *testing.T) {
	rr := httptest.NewRecorder()
	PositionHandler(&mockPositionReader{err: assert.AnError}, "KASUSDC").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/position", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestStatusHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	StatusHandler(&mockReporter{snap: controller.Snapshot{Pair: "KASUSDC", EquityUSD: 30.6, OpenBuys: 3}}).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var snap controller.Snapshot
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, 30.6, snap.EquityUSD)
	assert.Equal(t, 3, snap.OpenBuys)

	rr = httptest.NewRecorder()
	StatusHandler(&mockReporter{err: assert.AnError}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}
