// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"bytes"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("not found")

type mem map[string]string

func (m mem) Get(k []byte) ([]byte, error) {
	if v, ok := m[string(k)]; ok {
		return []byte(v), nil
	}
	return nil, errNotFound
}

func (m mem) Has(k []byte) (bool, error) {
	_, ok := m[string(k)]
	return ok, nil
}

func (m mem) Put(k, v []byte) error {
	m[string(k)] = string(v)
	return nil
}

func (m mem) Delete(k []byte) error {
	delete(m, string(k))
	return nil
}

func (m mem) IsNotFound(err error) bool { return err == errNotFound }

func (m mem) Bulk() Bulk {
	pending := mem{}
	deleted := map[string]bool{}
	return &struct {
		PutFunc
		DeleteFunc
		LenFunc
		WriteFunc
	}{
		func(k, v []byte) error {
			delete(deleted, string(k))
			return pending.Put(k, v)
		},
		func(k []byte) error {
			delete(pending, string(k))
			deleted[string(k)] = true
			return nil
		},
		func() int { return len(pending) + len(deleted) },
		func() error {
			for k := range deleted {
				delete(m, k)
			}
			for k, v := range pending {
				m[k] = v
			}
			return nil
		},
	}
}

func (m mem) Iterate(r Range) Iterator {
	var keys []string
	for k := range m {
		if bytes.Compare([]byte(k), r.Start) < 0 {
			continue
		}
		if len(r.Limit) > 0 && bytes.Compare([]byte(k), r.Limit) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	i := -1
	return &struct {
		NextFunc
		KeyFunc
		ValueFunc
		ReleaseFunc
		ErrorFunc
	}{
		func() bool { i++; return i < len(keys) },
		func() []byte { return []byte(keys[i]) },
		func() []byte { return []byte(m[keys[i]]) },
		func() {},
		func() error { return nil },
	}
}

func TestBucket_GetterGet(t *testing.T) {
	m := mem{"k1": "v1", "k2": "v2"}

	tests := []struct {
		b    Bucket
		key  string
		want string
	}{
		{Bucket(""), "k1", "v1"},
		{Bucket(""), "k2", "v2"},
		{Bucket("k"), "k1", ""},
		{Bucket("k"), "1", "v1"},
		{Bucket("k"), "2", "v2"},
		{Bucket("k1"), "", "v1"},
	}
	for _, tt := range tests {
		got, _ := tt.b.NewGetter(m).Get([]byte(tt.key))
		assert.Equal(t, tt.want, string(got), "bucket %q key %q", tt.b, tt.key)
	}
}

func TestBucket_GetterHas(t *testing.T) {
	m := mem{"k1": "v1", "k2": "v2"}

	tests := []struct {
		b    Bucket
		key  string
		want bool
	}{
		{Bucket(""), "k1", true},
		{Bucket("k"), "k1", false},
		{Bucket("k"), "1", true},
		{Bucket("k1"), "", true},
		{Bucket("x"), "1", false},
	}
	for _, tt := range tests {
		got, err := tt.b.NewGetter(m).Has([]byte(tt.key))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "bucket %q key %q", tt.b, tt.key)
	}
}

func TestBucket_PutterPutDelete(t *testing.T) {
	m := mem{}
	p := Bucket("b").NewPutter(m)

	require.NoError(t, p.Put([]byte("1"), []byte("v1")))
	assert.Equal(t, mem{"b1": "v1"}, m)

	require.NoError(t, p.Delete([]byte("1")))
	assert.Equal(t, mem{}, m)
}

func TestBucket_StoreBulk(t *testing.T) {
	m := mem{"b0": "old"}
	s := Bucket("b").NewStore(m)

	bulk := s.Bulk()
	require.NoError(t, bulk.Put([]byte("1"), []byte("v1")))
	require.NoError(t, bulk.Delete([]byte("0")))
	assert.Equal(t, 2, bulk.Len())
	assert.Equal(t, mem{"b0": "old"}, m, "nothing applied before write")

	require.NoError(t, bulk.Write())
	assert.Equal(t, mem{"b1": "v1"}, m)
}

func TestBucket_StoreIterate(t *testing.T) {
	m := mem{"a1": "x", "b1": "v1", "b2": "v2", "b3": "v3", "c1": "y"}
	s := Bucket("b").NewStore(m)

	collect := func(r Range) (keys []string) {
		it := s.Iterate(r)
		defer it.Release()
		for it.Next() {
			keys = append(keys, string(it.Key()))
		}
		require.NoError(t, it.Error())
		return
	}

	assert.Equal(t, []string{"1", "2", "3"}, collect(Range{}))
	assert.Equal(t, []string{"2"}, collect(Range{Start: []byte("2"), Limit: []byte("3")}))
}

func TestGetOptional(t *testing.T) {
	m := mem{"k": "v"}

	val, err := GetOptional(m, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	val, err = GetOptional(m, []byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestPrefixRange(t *testing.T) {
	assert.Equal(t, Range{Start: []byte("ab"), Limit: []byte("ac")}, PrefixRange([]byte("ab")))
	assert.Equal(t, Range{Start: []byte{1, 0xff}, Limit: []byte{2}}, PrefixRange([]byte{1, 0xff}))
	assert.Nil(t, PrefixRange([]byte{0xff}).Limit)
}
