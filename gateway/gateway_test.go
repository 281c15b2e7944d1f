package gateway_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"aquachain/core"
	"aquachain/gateway"
	"aquachain/native/allocation"
	"aquachain/storage"
)

const userHex = "0x0000000000000000000000000000000000000001"

func newTestGateway(t *testing.T) (http.Handler, *core.Node) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)

	params := allocation.DefaultParams()
	params.Treasury[19] = 0x77
	var admin [20]byte
	admin[19] = 0xAD
	node, err := core.NewNode(db, core.NodeConfig{Params: params, Admin: admin})
	require.NoError(t, err)
	return gateway.New(node, nil), node
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestGateway(t)
	rec := get(t, handler, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	handler, node := newTestGateway(t)
	_, err := node.AdvanceTo(1000)
	require.NoError(t, err)

	rec := get(t, handler, "/v1/allocation/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Active       bool   `json:"active"`
		CurrentCycle uint64 `json:"currentCycle"`
		Ready        bool   `json:"ready"`
		Height       uint64 `json:"height"`
	}
	decode(t, rec, &payload)
	require.False(t, payload.Active)
	require.True(t, payload.Ready)
	require.Equal(t, uint64(6), payload.CurrentCycle)
	require.Equal(t, uint64(1000), payload.Height)
}

func TestUsageEndpoints(t *testing.T) {
	handler, node := newTestGateway(t)
	var admin, user [20]byte
	admin[19] = 0xAD
	user[19] = 0x01

	_, err := node.AdvanceTo(1000)
	require.NoError(t, err)
	require.NoError(t, node.Register(admin, user))
	applied, err := node.ReportUsage(admin, user, 500, 6)
	require.NoError(t, err)
	require.True(t, applied)

	rec := get(t, handler, "/v1/allocation/cycles/6/usage/"+userHex)
	require.Equal(t, http.StatusOK, rec.Code)
	var usage struct {
		Used       uint64 `json:"used"`
		ReportedAt uint64 `json:"reportedAt"`
	}
	decode(t, rec, &usage)
	require.Equal(t, uint64(500), usage.Used)
	require.Equal(t, uint64(1000), usage.ReportedAt)

	rec = get(t, handler, "/v1/allocation/cycles/7/usage/"+userHex)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, handler, "/v1/allocation/cycles/6/total")
	require.Equal(t, http.StatusOK, rec.Code)
	var total struct {
		Total uint64 `json:"total"`
	}
	decode(t, rec, &total)
	require.Equal(t, uint64(500), total.Total)

	rec = get(t, handler, "/v1/allocation/cycles/6/estimate/"+userHex)
	require.Equal(t, http.StatusOK, rec.Code)
	var estimate struct {
		Estimate uint64 `json:"estimate"`
	}
	decode(t, rec, &estimate)
	require.Equal(t, uint64(0), estimate.Estimate)

	// An estimate without a usage record is not found.
	rec = get(t, handler, "/v1/allocation/cycles/9/estimate/"+userHex)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsageRejectsBadParams(t *testing.T) {
	handler, _ := newTestGateway(t)
	rec := get(t, handler, "/v1/allocation/cycles/abc/usage/"+userHex)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = get(t, handler, "/v1/allocation/cycles/6/usage/not-an-address")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenEndpoints(t *testing.T) {
	handler, _ := newTestGateway(t)

	rec := get(t, handler, "/v1/token/balances/"+userHex)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance struct {
		Balance string `json:"balance"`
	}
	decode(t, rec, &balance)
	require.Equal(t, "0", balance.Balance)

	rec = get(t, handler, "/v1/token/supply")
	require.Equal(t, http.StatusOK, rec.Code)
	var supply struct {
		Supply string `json:"supply"`
	}
	decode(t, rec, &supply)
	require.Equal(t, "0", supply.Supply)
}
