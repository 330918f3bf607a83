package logging

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newCapturedLogger() (*DefaultLogger, *bytes.Buffer, *bytes.Buffer) {
	l := NewDefaultLoggerNoColor()
	var stdout, stderr bytes.Buffer
	l.stdoutLogger = log.New(&stdout, "", 0)
	l.stderrLogger = log.New(&stderr, "", 0)
	return l, &stdout, &stderr
}

func TestDefaultLoggerLevels(t *testing.T) {
	l, stdout, stderr := newCapturedLogger()
	l.SetLevel(WarnLevel)

	l.Debug("quiet")
	l.Info("quiet")
	assert.Empty(t, stdout.String())

	l.Warn("loud")
	assert.Contains(t, stderr.String(), "[WARN] loud")

	l.Error(errors.New("boom"), "failed")
	assert.Contains(t, stderr.String(), "[ERROR] failed: boom")
}

func TestDefaultLoggerRouting(t *testing.T) {
	l, stdout, stderr := newCapturedLogger()
	l.SetLevel(DebugLevel)

	l.Debug("first")
	l.Info("second")
	l.Warn("third")

	assert.Contains(t, stdout.String(), "[DEBUG] first")
	assert.Contains(t, stdout.String(), "[INFO] second")
	assert.NotContains(t, stdout.String(), "third")
	assert.Contains(t, stderr.String(), "[WARN] third")
}

func TestFormatMessageFields(t *testing.T) {
	l, _, _ := newCapturedLogger()
	child, ok := l.WithFields(Fields{"component": "psd"}).(*DefaultLogger)
	assert.True(t, ok)

	msg := child.formatMessage(InfoLevel, nil, "estimating", Fields{"bins": 257})
	assert.Contains(t, msg, "[INFO] estimating")
	assert.Contains(t, msg, "component:psd")
	assert.Contains(t, msg, "bins:257")
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	l, _, _ := newCapturedLogger()
	parent, ok := l.WithFields(Fields{"component": "enhance"}).(*DefaultLogger)
	assert.True(t, ok)

	child, ok := parent.WithFields(Fields{"function": "GEV"}).(*DefaultLogger)
	assert.True(t, ok)

	assert.NotContains(t, parent.fields, "function")
	assert.Equal(t, "enhance", child.fields["component"])
	assert.Equal(t, "GEV", child.fields["function"])
}

func TestColorWrapping(t *testing.T) {
	l, _, _ := newCapturedLogger()
	l.useColors = true

	warn := l.formatMessage(WarnLevel, nil, "careful")
	assert.True(t, strings.HasPrefix(warn, ColorYellow))
	assert.True(t, strings.HasSuffix(warn, ColorReset))

	info := l.formatMessage(InfoLevel, nil, "plain")
	assert.False(t, strings.HasPrefix(info, ColorYellow))
}

func TestGlobalLogger(t *testing.T) {
	old := GetGlobalLogger()
	defer SetGlobalLogger(old)

	noop := &NoOpLogger{}
	SetGlobalLogger(noop)
	assert.Same(t, Logger(noop), GetGlobalLogger())

	// Package-level helpers route through the configured logger.
	Debug("ignored")
	Info("ignored")
	Warn("ignored")
	Error(errors.New("x"), "ignored")
	assert.Same(t, Logger(noop), WithFields(Fields{"k": "v"}))
}