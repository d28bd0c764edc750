package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"LOG_LEVEL", "REDIS_ADDR", "CHECKPOINT_INTERVAL", "DEALLOC_BACKLOG_WARN", "WINDOW_SIZES"} {
		t.Setenv(k, "")
	}
	c := Load()
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, ":9090", c.MetricsAddr)
	assert.Equal(t, "localhost:6379", c.RedisAddr)
	assert.Equal(t, "data/checkpoints.db", c.SQLitePath)
	assert.Equal(t, "arrayd:checkpoint", c.CheckpointKey)
	assert.Equal(t, 30*time.Second, c.CheckpointInterval)
	assert.Equal(t, 4096, c.DeallocBacklogWarn)
	assert.Equal(t, []int{20, 50, 200}, c.ParseWindowSizes())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CHECKPOINT_INTERVAL", "5s")
	t.Setenv("DEALLOC_BACKLOG_WARN", "10")
	t.Setenv("INPUT_PROPERTIES", "4")
	c := Load()
	assert.Equal(t, 5*time.Second, c.CheckpointInterval)
	assert.Equal(t, 10, c.DeallocBacklogWarn)
	assert.Equal(t, 4, c.InputProperties)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("CHECKPOINT_INTERVAL", "soon")
	t.Setenv("DEALLOC_BACKLOG_WARN", "-3")
	c := Load()
	assert.Equal(t, 30*time.Second, c.CheckpointInterval)
	assert.Equal(t, 4096, c.DeallocBacklogWarn)
}

func TestParseWindowSizes(t *testing.T) {
	c := &Config{WindowSizes: " 5, x, 0,10,5,,-2 "}
	assert.Equal(t, []int{5, 10}, c.ParseWindowSizes())
}
