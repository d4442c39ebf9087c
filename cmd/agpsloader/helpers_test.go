package main

import (
	"testing"

	"github.com/aldas/go-agps-client/internal/config"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load(nil, "")
	require.NoError(t, err)
	return cfg
}
