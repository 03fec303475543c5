package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/courtside-queue/config"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	// miniredis has no CLIENT command, so no connection name here
	cli, err := NewClient(config.RedisConfig{Addr: mr.Addr(), PoolSize: 2, MinIdleConns: 5})
	require.NoError(t, err)
	defer cli.Close()

	assert.Equal(t, 2, cli.Options().MinIdleConns)
	assert.Empty(t, cli.Options().ClientName)
	require.NoError(t, cli.Ping(context.Background()).Err())
}

func TestNewClient_CarriesClientName(t *testing.T) {
	cli, err := NewClient(config.RedisConfig{Addr: "localhost:6379", ClientName: "courtside-queue"})
	require.NoError(t, err)
	defer cli.Close()

	assert.Equal(t, "courtside-queue", cli.Options().ClientName)
}

func TestNewClient_RequiresAddr(t *testing.T) {
	_, err := NewClient(config.RedisConfig{})
	assert.Error(t, err)
}
