package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		env     string
		opts    Options
		wantErr bool
	}{
		{env: "prod"},
		{env: "local", opts: Options{Level: "debug"}},
		{env: "dev", opts: Options{Level: "warn", Format: "json"}},
		{env: "prod", opts: Options{Format: "console"}},
		{env: "test"},
		{env: "staging", wantErr: true},
		{env: "local", opts: Options{Level: "loud"}, wantErr: true},
		{env: "local", opts: Options{Format: "xml"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.env+"/"+tc.opts.Level+"/"+tc.opts.Format, func(t *testing.T) {
			l, err := New(tc.env, tc.opts)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNew_EnvDefaults(t *testing.T) {
	prod, err := New("prod", Options{})
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel), "prod defaults to info")

	local, err := New("local", Options{})
	require.NoError(t, err)
	assert.True(t, local.Core().Enabled(zapcore.DebugLevel), "local defaults to debug")
}

func TestNew_LevelOverride(t *testing.T) {
	l, err := New("prod", Options{Level: "error"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestFromContextOr(t *testing.T) {
	fallback := zap.NewExample()
	assert.Same(t, fallback, FromContextOr(context.Background(), fallback))

	attached := zap.NewNop()
	ctx := Attach(context.Background(), attached)
	assert.Same(t, attached, FromContextOr(ctx, fallback))

	ctx = Attach(context.Background(), nil)
	assert.Same(t, fallback, FromContextOr(ctx, fallback), "nil logger falls back")
}

func TestWith_AddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := Attach(context.Background(), zap.New(core))

	ctx = With(ctx, zap.String("collection", "snippets"))
	ctx = With(ctx, zap.Int("limit", 20))
	FromContext(ctx).Info("searched")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "snippets", fields["collection"])
	assert.EqualValues(t, 20, fields["limit"])
}
