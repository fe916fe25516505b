// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapHandlerFunc(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"ok", nil, http.StatusOK, ""},
		{"bad request", BadRequest(errors.New("era: invalid")), http.StatusBadRequest, "era: invalid\n"},
		{"wrapped not found", errors.Wrap(NotFound(errors.New("no dapp")), "lookup"), http.StatusNotFound, "no dapp\n"},
		{"bare status", HTTPError(nil, http.StatusForbidden), http.StatusForbidden, ""},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "boom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error { return tt.err })(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, M{"era": 3}))
	assert.Equal(t, JSONContentType, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"era":3}`, rec.Body.String())
}

func TestParse(t *testing.T) {
	_, err := ParseAddress("address", "0x12")
	assert.Error(t, err)
	addr, err := ParseAddress("address", "0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, byte(1), addr[19])

	n, err := ParseUint32("era", "42")
	require.NoError(t, err)
	assert.Equal(t, uint32(42), n)
	_, err = ParseUint32("era", "-1")
	assert.Error(t, err)
}
