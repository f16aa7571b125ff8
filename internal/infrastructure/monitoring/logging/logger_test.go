package logging

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	pkgerrors "github.com/turtacn/LegisGraph/pkg/errors"
)

// newTestLogger builds a logger that writes JSON lines into a buffer.
func newTestLogger(t *testing.T, level zapcore.Level) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), buf, level)
	return NewLoggerFromCore(core), buf
}

func decodeLines(t *testing.T, buf *zaptest.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range buf.Lines() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestNewLogger_JSONFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelInfo, Format: "json", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelDebug, Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_UnopenablePath(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir/sub/log.txt"}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestNewLoggerWithLevel_RuntimeChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, level, err := NewLoggerWithLevel(LogConfig{Level: LevelWarn, OutputPaths: []string{path}})
	require.NoError(t, err)

	l.Info("dropped")
	assert.True(t, level.Set("debug"))
	assert.False(t, level.Set("verbose"))
	assert.Equal(t, "debug", level.String())
	l.Named("child").Debug("kept")
	require.NoError(t, l.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "dropped")
	assert.Contains(t, string(raw), "kept")
}

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("DEBUG")
	assert.True(t, ok)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	lvl, ok = ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	lvl, ok = ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, zapcore.InfoLevel, lvl)
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.Named("x"))
	assert.Equal(t, l, l.WithError(errors.New("x")))
	assert.NoError(t, l.Sync())
}

func TestZapLogger_LevelsAndFields(t *testing.T) {
	l, buf := newTestLogger(t, zapcore.InfoLevel)

	l.Debug("hidden")
	l.Info("parsed", DocID("111th-congress_house-bill_1"), Int("rows", 12), Bool("front_matter_dropped", true))
	l.Warn("slow", Duration("elapsed", 2*time.Second), Float64("density", 0.5))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "parsed", entries[0]["msg"])
	assert.Equal(t, "111th-congress_house-bill_1", entries[0][FieldDocID])
	assert.Equal(t, float64(12), entries[0]["rows"])
	assert.Equal(t, true, entries[0]["front_matter_dropped"])
	assert.Equal(t, "warn", entries[1]["level"])
	assert.Equal(t, 0.5, entries[1]["density"])
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, buf := newTestLogger(t, zapcore.DebugLevel)

	child := l.Named("pipeline").With(String(FieldRunID, "run-1"))
	child.Info("start")
	l.Info("parent")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "pipeline", entries[0]["logger"])
	assert.Equal(t, "run-1", entries[0][FieldRunID])
	_, hasRun := entries[1][FieldRunID]
	assert.False(t, hasRun)
}

func TestZapLogger_WithError_AppErrorAddsCode(t *testing.T) {
	l, buf := newTestLogger(t, zapcore.DebugLevel)

	l.WithError(pkgerrors.New(pkgerrors.ErrCodeParseFailed, "failed parse")).Error("boom")
	l.WithError(errors.New("plain")).Error("boom2")
	assert.Equal(t, l, l.WithError(nil))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "PARSE_001", entries[0][FieldErrorCode])
	assert.True(t, strings.Contains(entries[0]["error"].(string), "failed parse"))
	_, hasCode := entries[1][FieldErrorCode]
	assert.False(t, hasCode)
}

func TestLogStage_LevelsByErrorKind(t *testing.T) {
	l, buf := newTestLogger(t, zapcore.DebugLevel)
	start := time.Now()

	LogStage(l, "parse", "doc-1", start, nil)
	LogStage(l, "parse", "doc-2", start, pkgerrors.New(pkgerrors.ErrCodeParseFailed, "failed"))
	LogStage(l, "persist", "doc-3", start, errors.New("db down"))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 3)
	assert.Equal(t, "debug", entries[0]["level"])
	assert.Equal(t, "warn", entries[1]["level"])
	assert.Equal(t, "error", entries[2]["level"])
	assert.Equal(t, "persist", entries[2][FieldStage])
}

func TestSetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	l, _ := newTestLogger(t, zapcore.InfoLevel)
	SetDefault(l)
	assert.Equal(t, l, Default())

	SetDefault(nil)
	assert.Equal(t, l, Default())
}

//Personal.AI order the ending
