package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFromFallsBackToGlobal(t *testing.T) {
	assert.Same(t, L(), From(context.Background()))
}

func TestFromReturnsScopedLogger(t *testing.T) {
	scoped := zap.NewNop().With(zap.String("request_id", "abc"))
	ctx := ToContext(context.Background(), scoped)
	assert.Same(t, scoped, From(ctx))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(" warning "))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}
