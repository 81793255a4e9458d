package logsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/darasa/core"
)

// main wires logger.Enable(!conf.Debug); that toggle gates remote reporting
// only and must never change what gets logged locally.
func TestZapLogger_EnableKeepsLevel(t *testing.T) {
	dev := NewZapLogger(&core.Config{AppName: "darasa", Debug: true})
	dev.Enable(false)
	assert.True(t, dev.l.Desugar().Core().Enabled(zapcore.InfoLevel), "dev logger must keep logging Info")
	assert.True(t, dev.l.Desugar().Core().Enabled(zapcore.DebugLevel), "dev logger must keep logging Debug")

	prod := NewZapLogger(&core.Config{AppName: "darasa"})
	prod.Enable(true)
	assert.True(t, prod.l.Desugar().Core().Enabled(zapcore.InfoLevel), "prod logger logs at Info")
	assert.False(t, prod.l.Desugar().Core().Enabled(zapcore.DebugLevel), "prod logger keeps the Info default")
}
