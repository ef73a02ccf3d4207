package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"futurechain/core"
	"futurechain/crypto"
	"futurechain/native/futures"
	"futurechain/storage"
)

const testToken = "test-rpc-token"

func rpcAddr(suffix byte) [20]byte {
	var addr [20]byte
	addr[19] = suffix
	return addr
}

func bech32For(addr [20]byte) string {
	return crypto.NewAddress(crypto.FutPrefix, addr[:]).String()
}

func newTestServer(t *testing.T) (*Server, *core.Node) {
	t.Helper()
	t.Setenv("FUTURES_RPC_TOKEN", testToken)
	node, err := core.NewNode(storage.NewMemDB(), core.NodeConfig{
		FeeRate:      10,
		FeeCollector: rpcAddr(0xFE),
	})
	require.NoError(t, err)
	require.NoError(t, node.ApplyGenesis([]core.GenesisAlloc{
		{Address: rpcAddr(0x01), Token: futures.NativeToken, Amount: big.NewInt(1_000)},
	}))
	return NewServer(node), node
}

func callRPC(t *testing.T, s *Server, authed bool, method string, params ...interface{}) (*httptest.ResponseRecorder, RPCResponse) {
	t.Helper()
	raw := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		encoded, err := json.Marshal(p)
		require.NoError(t, err)
		raw = append(raw, encoded)
	}
	body, err := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: raw, ID: 1})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	var resp RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func futureTerms(owner string) map[string]interface{} {
	now := time.Now().Unix()
	return map[string]interface{}{
		"owner":               owner,
		"deliverable":         "WHT",
		"deliverableQuantity": "10",
		"totalSupply":         "100",
		"payToken":            futures.NativeToken,
		"price":               "5",
		"securityDeposit":     "100",
		"startTime":           now + 100,
		"startDeliveryTime":   now + 200,
		"endTime":             now + 300,
	}
}

func TestMutatingMethodsRequireAuth(t *testing.T) {
	s, _ := newTestServer(t)
	owner := bech32For(rpcAddr(0x01))

	rec, resp := callRPC(t, s, false, "futures_create", futureTerms(owner))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"jsonrpc":"2.0","method":"futures_deposit","params":[{}],"id":1}`)))
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec2 := httptest.NewRecorder()
	s.handle(rec2, req)
	require.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestCreateAndGetFuture(t *testing.T) {
	s, _ := newTestServer(t)
	owner := bech32For(rpcAddr(0x01))

	rec, resp := callRPC(t, s, true, "futures_create", futureTerms(owner))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	created, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var future futuresJSON
	require.NoError(t, json.Unmarshal(created, &future))
	require.Equal(t, uint64(1), future.ID)
	require.Equal(t, owner, future.Owner)
	require.Equal(t, "WHT", future.Deliverable)
	require.Equal(t, uint32(10), future.FeeRate)
	require.Equal(t, "created", future.Phase)

	// Reads need no bearer token.
	rec, resp = callRPC(t, s, false, "futures_get", map[string]interface{}{"futureId": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)
}

func TestGetMissingFutureMapsToNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec, resp := callRPC(t, s, false, "futures_get", map[string]interface{}{"futureId": 42})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeFuturesNotFound, resp.Error.Code)
}

func TestCreateRejectsBadParams(t *testing.T) {
	s, _ := newTestServer(t)
	owner := bech32For(rpcAddr(0x01))

	terms := futureTerms(owner)
	terms["price"] = "0"
	rec, resp := callRPC(t, s, true, "futures_create", terms)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeFuturesInvalidParams, resp.Error.Code)

	terms = futureTerms("not-an-address")
	rec, resp = callRPC(t, s, true, "futures_create", terms)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeFuturesInvalidParams, resp.Error.Code)

	rec, resp = callRPC(t, s, true, "futures_create")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeFuturesInvalidParams, resp.Error.Code)
}

func TestGetBalance(t *testing.T) {
	s, _ := newTestServer(t)
	owner := bech32For(rpcAddr(0x01))

	rec, resp := callRPC(t, s, false, "fut_getBalance", map[string]interface{}{
		"address": owner,
		"token":   "fut",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	require.Equal(t, "1000", result["balance"])
	require.Equal(t, "FUT", result["token"])
}

func TestMethodNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec, resp := callRPC(t, s, false, "futures_unknown")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestMalformedBody(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.handle(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, codeParseError, resp.Error.Code)
}

func TestRateLimiterWindow(t *testing.T) {
	s, _ := newTestServer(t)
	now := time.Now()
	for i := 0; i < maxTxPerWindow; i++ {
		require.True(t, s.allowSource("10.0.0.1", now), fmt.Sprintf("request %d should pass", i))
	}
	require.False(t, s.allowSource("10.0.0.1", now))
	// Other sources keep their own allowance.
	require.True(t, s.allowSource("10.0.0.2", now))
	// The window resets.
	require.True(t, s.allowSource("10.0.0.1", now.Add(rateLimitWindow)))
}

func TestEventsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	owner := bech32For(rpcAddr(0x01))

	_, resp := callRPC(t, s, true, "futures_create", futureTerms(owner))
	require.Nil(t, resp.Error)

	rec, resp := callRPC(t, s, false, "futures_events", map[string]interface{}{"limit": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)
	events := resp.Result.([]interface{})
	require.Len(t, events, 1)
	first := events[0].(map[string]interface{})
	require.Equal(t, futures.EventTypeCreated, first["type"])
}
