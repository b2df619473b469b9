package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNamed_TagsComponent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	Named("jobs.expiry").Info("sweep.done")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "sweep.done", entry.Message)
	assert.Equal(t, "jobs.expiry", entry.ContextMap()["component"])
}

func TestSet_NilInstallsNop(t *testing.T) {
	Set(nil)
	assert.NotNil(t, L())
	assert.NotNil(t, S())
	L().Info("discarded")
}

func TestInit_ProdLevelOverride(t *testing.T) {
	Init("quotation-test", "prod", "warn")
	t.Cleanup(func() { Set(nil) })

	assert.False(t, L().Core().Enabled(zap.InfoLevel))
	assert.True(t, L().Core().Enabled(zap.WarnLevel))
}
