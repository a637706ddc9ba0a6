package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"acrobot/config"
	"acrobot/tokens"
)

func newTestCommand(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = newLogger("warn", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}

func TestClassifyPrintsIntent(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runClassify(newTestCommand(&out), []string{"what", "is", "FTS?"}))

	assert.JSONEq(t, `{"action": "what", "subjects": ["fts"]}`, out.String())
}

func TestDefineReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acronyms.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"acronyms": ["fts"], "meaning": "Flight Termination System"}]`), 0o644))

	acronymsFile, usePostgres = path, false
	t.Cleanup(func() { acronymsFile = "acronyms.json" })

	var out bytes.Buffer
	require.NoError(t, runDefine(newTestCommand(&out), []string{"FTS", "and", "lox"}))

	assert.Equal(t, "FTS (Flight Termination System)\nlox: no match\n", out.String())
}

func TestImportIntoFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "new.json")
	dst := filepath.Join(dir, "acronyms.json")
	require.NoError(t, os.WriteFile(src, []byte(`[{"acronyms": ["lox"], "meaning": "Liquid Oxygen"}]`), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte(`[{"acronyms": ["fts"], "meaning": "Flight Termination System"}]`), 0o644))

	acronymsFile, importBackend = dst, "file"
	t.Cleanup(func() { acronymsFile, importBackend = "acronyms.json", "file" })

	var out bytes.Buffer
	require.NoError(t, runImport(newTestCommand(&out), []string{src}))
	assert.Equal(t, "imported 1 acronyms from "+src+"\n", out.String())

	out.Reset()
	usePostgres = false
	require.NoError(t, runDefine(newTestCommand(&out), []string{"lox", "fts"}))
	assert.Equal(t, "LOX (Liquid Oxygen)\nFTS (Flight Termination System)\n", out.String())

	// файл не импортируется сам в себя
	assert.Error(t, runImport(newTestCommand(&out), []string{dst}))

	importBackend = "redis"
	assert.Error(t, runImport(newTestCommand(&out), []string{src}))
}

func TestTokenManagerWithoutSecret(t *testing.T) {
	manager := newTokenManager(config.TwitchConfig{
		OAuthToken:   "oauth:abc",
		RefreshToken: "r",
		TokenFile:    filepath.Join(t.TempDir(), "tokens.json"),
	}, nil)

	token, err := manager.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token.Access)

	_, err = manager.Refresh(context.Background())
	assert.ErrorIs(t, err, tokens.ErrNoRefresh)
}
