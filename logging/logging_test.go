package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferedLogger(prefix string, debug bool) (*DefaultLogger, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return newLogger(prefix, debug, out, errOut, 0), out, errOut
}

func TestDefaultLogger_Levels(t *testing.T) {
	l, out, errOut := newBufferedLogger("lumen", false)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, out.String())

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)
	l.Infof("info")
	l.Warnf("warn")
	l.Errorf("err")

	assert.Equal(t, "[lumen] DEBUG: shown 2\n[lumen] INFO: info\n", out.String())
	assert.Equal(t, "[lumen] WARN: warn\n[lumen] ERROR: err\n", errOut.String())
}

func TestDefaultLogger_NoPrefix(t *testing.T) {
	l, out, _ := newBufferedLogger("", false)
	l.Infof("hello")
	assert.Equal(t, "INFO: hello\n", out.String())
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "Level(9)", Level(9).String())
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	assert.NotNil(t, l)
	assert.False(t, l.DebugEnabled())

	d := NewDefaultLogger("x", true)
	assert.Same(t, d, OrNop(d))
}
