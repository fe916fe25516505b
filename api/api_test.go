// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dappstaking/eventlog"
	"github.com/vechain/dappstaking/test/testengine"
)

func TestNew(t *testing.T) {
	engine, err := testengine.New(testengine.Config())
	require.NoError(t, err)
	defer engine.Close()

	eventLog, err := eventlog.NewMem()
	require.NoError(t, err)
	defer eventLog.Close()
	require.NoError(t, eventLog.Insert(nil))

	handler, closeFn := New(engine.Engine, eventLog, Options{
		AllowedOrigins: "http://Allowed.example, http://other.example",
		LogsLimit:      10,
		EnableMetrics:  true,
	})
	ts := httptest.NewServer(handler)
	defer ts.Close()
	defer closeFn()

	body, code := httpGet(t, ts.URL+"/staking/protocol")
	require.Equal(t, http.StatusOK, code)
	var protocol map[string]any
	require.NoError(t, json.Unmarshal(body, &protocol))
	assert.Equal(t, "Voting", protocol["subperiod"])

	body, code = httpGet(t, ts.URL+"/events")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "[]", string(body))

	_, code = httpGet(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/staking/tiers", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://allowed.example")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "http://allowed.example", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestNew_WithoutEventLog(t *testing.T) {
	engine, err := testengine.New(testengine.Config())
	require.NoError(t, err)
	defer engine.Close()

	handler, closeFn := New(engine.Engine, nil, Options{AllowedOrigins: "*"})
	ts := httptest.NewServer(handler)
	defer ts.Close()
	defer closeFn()

	_, code := httpGet(t, ts.URL+"/events")
	assert.Equal(t, http.StatusNotFound, code)
	_, code = httpGet(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}
