package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"aquachain/core"
	"aquachain/native/allocation"
	"aquachain/storage"
)

const (
	testToken    = "secret-token"
	adminHex     = "0x00000000000000000000000000000000000000ad"
	treasuryHex  = "0x0000000000000000000000000000000000000077"
	userHex      = "0x0000000000000000000000000000000000000001"
	otherUserHex = "0x0000000000000000000000000000000000000002"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)

	params := allocation.DefaultParams()
	params.Treasury[19] = 0x77
	var admin [20]byte
	admin[19] = 0xAD
	node, err := core.NewNode(db, core.NodeConfig{Params: params, Admin: admin})
	require.NoError(t, err)
	return &Server{node: node, authToken: testToken}
}

func rpcCall(t *testing.T, srv *Server, token, method string, params interface{}) (*httptest.ResponseRecorder, RPCResponse) {
	t.Helper()
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.handle(rec, req)

	var resp RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func requireResult(t *testing.T, resp RPCResponse, out interface{}) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected rpc error: %+v", resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestStatusOpenWithoutAuth(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := rpcCall(t, srv, "", "allocation_status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status allocationStatusResult
	requireResult(t, resp, &status)
	require.False(t, status.Active)
	require.True(t, status.Ready)
	require.Equal(t, uint64(0), status.Height)
}

func TestMutatingMethodsRequireBearerToken(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := rpcCall(t, srv, "", "allocation_register", registerParams{Caller: adminHex, Account: userHex})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	rec, resp = rpcCall(t, srv, "wrong-token", "allocation_register", registerParams{Caller: adminHex, Account: userHex})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
}

func TestUnconfiguredTokenRejectsMutations(t *testing.T) {
	srv := newTestServer(t)
	srv.authToken = ""

	rec, resp := rpcCall(t, srv, testToken, "allocation_startCycle", callerParams{Caller: adminHex})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
}

func TestMethodNotFound(t *testing.T) {
	srv := newTestServer(t)
	rec, resp := rpcCall(t, srv, "", "allocation_unknown", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestInvalidJSONPayload(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.handle(rec, req)

	var resp RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, codeParseError, resp.Error.Code)
}

func TestUnsupportedVersionRejected(t *testing.T) {
	srv := newTestServer(t)
	body := []byte(`{"jsonrpc":"1.0","id":1,"method":"allocation_status"}`)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.handle(rec, req)

	var resp RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)
}

func TestFullAllocationFlow(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.node.AdvanceTo(1000)
	require.NoError(t, err)

	rec, resp := rpcCall(t, srv, testToken, "allocation_register", registerParams{Caller: adminHex, Account: userHex})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	rec, resp = rpcCall(t, srv, testToken, "allocation_reportUsage", reportUsageParams{
		Caller: adminHex, Account: userHex, Amount: 500, Cycle: 6,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var report reportUsageResult
	requireResult(t, resp, &report)
	require.True(t, report.Applied)

	// Duplicate report is a successful no-op.
	rec, resp = rpcCall(t, srv, testToken, "allocation_reportUsage", reportUsageParams{
		Caller: adminHex, Account: userHex, Amount: 9999, Cycle: 6,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	requireResult(t, resp, &report)
	require.False(t, report.Applied)

	rec, resp = rpcCall(t, srv, testToken, "allocation_startCycle", callerParams{Caller: adminHex})
	require.Equal(t, http.StatusOK, rec.Code)
	var status allocationStatusResult
	requireResult(t, resp, &status)
	require.True(t, status.Active)

	rec, resp = rpcCall(t, srv, testToken, "allocation_allocate", allocateParams{
		Caller: adminHex, Accounts: []string{userHex},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var allocated allocateResult
	requireResult(t, resp, &allocated)
	require.Equal(t, uint64(6), allocated.Cycle)
	require.Equal(t, 1, allocated.Accounts)
	require.Equal(t, uint64(100), allocated.Total)

	rec, resp = rpcCall(t, srv, testToken, "allocation_finalizeCycle", callerParams{Caller: adminHex})
	require.Equal(t, http.StatusOK, rec.Code)
	requireResult(t, resp, &status)
	require.False(t, status.Active)
	require.Equal(t, uint64(1000), status.LastBlock)

	rec, resp = rpcCall(t, srv, "", "token_balance", tokenBalanceParams{Address: userHex})
	require.Equal(t, http.StatusOK, rec.Code)
	var balance map[string]interface{}
	requireResult(t, resp, &balance)
	require.Equal(t, "100", balance["balance"])

	rec, resp = rpcCall(t, srv, "", "allocation_getUsage", usageParams{Account: userHex, Cycle: 6})
	require.Equal(t, http.StatusOK, rec.Code)
	var usage usageResult
	requireResult(t, resp, &usage)
	require.True(t, usage.Found)
	require.Equal(t, uint64(500), usage.Used)

	rec, resp = rpcCall(t, srv, "", "allocation_recentEvents", recentEventsParams{Limit: 10})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)
}

func TestModuleErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.node.AdvanceTo(1000)
	require.NoError(t, err)

	// Non-admin caller is forbidden.
	rec, resp := rpcCall(t, srv, testToken, "allocation_register", registerParams{Caller: userHex, Account: otherUserHex})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	// Missing usage surfaces as not found.
	rec, resp = rpcCall(t, srv, "", "allocation_estimate", usageParams{Account: userHex, Cycle: 6})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)

	// Allocating without an active cycle is a domain failure.
	rec, resp = rpcCall(t, srv, testToken, "allocation_allocate", allocateParams{Caller: adminHex, Accounts: []string{userHex}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeServerError, resp.Error.Code)

	// Malformed addresses are parameter errors.
	rec, resp = rpcCall(t, srv, "", "allocation_getUsage", usageParams{Account: "not-an-address", Cycle: 6})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestOversizedRequestRejected(t *testing.T) {
	srv := newTestServer(t)
	body := bytes.Repeat([]byte("a"), maxRequestBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.handle(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMetricsEndpointServed(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Body.String())
}

func TestTokenSupplyMethod(t *testing.T) {
	srv := newTestServer(t)
	rec, resp := rpcCall(t, srv, "", "token_supply", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var supply map[string]interface{}
	requireResult(t, resp, &supply)
	require.Equal(t, "0", supply["supply"])
}

func TestParseAddressNormalizesCase(t *testing.T) {
	mixed := "0x00000000000000000000000000000000000000AD"
	got, err := parseAddress(mixed)
	require.NoError(t, err)
	require.Equal(t, byte(0xAD), got[19])

	_, err = parseAddress("")
	require.Error(t, err)
	_, err = parseAddress(fmt.Sprintf("0x%s", "zz"))
	require.Error(t, err)
}
