package main

import (
	"testing"

	"github.com/omniforge/agentcore/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRatelimitStore_DefaultsToMemory(t *testing.T) {
	store, closeFn, err := openRatelimitStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &ratelimit.MemoryStore{}, store)
	closeFn()
}

func TestOpenRatelimitStore_UnknownKindErrors(t *testing.T) {
	_, _, err := openRatelimitStore("redis", "")
	assert.Error(t, err)
}

func TestOpenRatelimitStore_EtcdBuildsClientFromEndpoints(t *testing.T) {
	// clientv3.New dials lazily, so this exercises the wiring (endpoint
	// parsing, store construction, close) without requiring a live etcd.
	store, closeFn, err := openRatelimitStore("etcd", "127.0.0.1:2379,127.0.0.1:2380")
	require.NoError(t, err)
	require.NotNil(t, store)
	closeFn()
}
