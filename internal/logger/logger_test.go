package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, format string) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	original := L()
	Replace(newLogger(buf, "debug", format))
	t.Cleanup(func() {
		Replace(original)
	})
	return buf
}

func TestNewTraceIDIsShortHex(t *testing.T) {
	id := NewTraceID()
	assert.Len(t, id, 8)
	assert.NotContains(t, id, "-")
	assert.NotEqual(t, id, NewTraceID())
}

func TestErrorWithTraceLogsCauseAndID(t *testing.T) {
	buf := captureLogs(t, "text")

	id := ErrorWithTrace(context.Background(), errors.New("disk full"), logrus.Fields{"endpoint": "/api/products"})

	line := buf.String()
	assert.Contains(t, line, "trace_id="+id)
	assert.Contains(t, line, "disk full")
	assert.Contains(t, line, "endpoint=/api/products")
	assert.Contains(t, line, "level=error")
}

func TestWithTraceReusesContextID(t *testing.T) {
	buf := captureLogs(t, "text")
	ctx := ContextWithTrace(context.Background(), "feedbeef")

	assert.Equal(t, "feedbeef", ErrorWithTrace(ctx, errors.New("disk full"), nil))
	assert.Equal(t, "feedbeef", WarnWithTrace(ctx, "slow", nil))
	assert.Equal(t, 2, strings.Count(buf.String(), "trace_id=feedbeef"))
}

func TestWarnWithTraceUsesJSONFormat(t *testing.T) {
	buf := captureLogs(t, "json")

	id := WarnWithTrace(context.Background(), "bad payload", logrus.Fields{"path": "/api/shopping"})

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, `"trace_id":"`+id+`"`)
	assert.Contains(t, line, `"msg":"bad payload"`)
	assert.Contains(t, line, `"level":"warning"`)
}

func TestWithContextAddsTraceID(t *testing.T) {
	buf := captureLogs(t, "text")

	ctx := ContextWithTrace(context.Background(), "abcd1234")
	WithContext(ctx).Info("hello")

	assert.Equal(t, "abcd1234", TraceFromContext(ctx))
	assert.Contains(t, buf.String(), "trace_id=abcd1234")
}

func TestInitRejectsUnknownSettings(t *testing.T) {
	original := L()
	t.Cleanup(func() { Replace(original) })

	require.Error(t, Init(Config{Level: "loud", Output: "stdout"}))
	require.Error(t, Init(Config{Level: "info", Output: "printer"}))
}

func TestInitWritesRotatedFile(t *testing.T) {
	original := L()
	t.Cleanup(func() { Replace(original) })

	dir := t.TempDir()
	require.NoError(t, Init(Config{Level: "info", Output: "file", Path: dir, File: "test.log", MaxSize: 1}))
	WithModule("test").Info("written")

	assert.FileExists(t, dir+"/test.log")
}
