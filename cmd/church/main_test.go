package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/tlog"

	"github.com/churchlang/church/compiler"
)

func TestSetupLogger(t *testing.T) {
	defer func(l *tlog.Logger) {
		tlog.DefaultLogger = l
	}(tlog.DefaultLogger)

	for _, dst := range []string{"none", ""} {
		err := setupLogger(dst, "reachable")
		require.NoError(t, err, "dst %q", dst)
		require.NotNil(t, tlog.DefaultLogger, "dst %q", dst)

		tlog.Printw("discarded")
	}

	path := filepath.Join(t.TempDir(), "church.log")

	err := setupLogger(path, "")
	require.NoError(t, err)

	tlog.Printw("logged message")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "logged message")

	err = setupLogger(filepath.Join(t.TempDir(), "no", "such", "dir.log"), "")
	assert.Error(t, err)
}

func TestPrintAST(t *testing.T) {
	x, err := compiler.Build(context.Background(), "", []byte("module M (b); a = -5; b = a;"))
	require.NoError(t, err)

	var b bytes.Buffer
	printAST(&b, x)

	assert.Equal(t, `module: "M" exports: 1
decl 0: a = -5
decl 1: b = a
`, b.String())
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	_, err := compiler.Compile(ctx, "", []byte("a = ;"), compiler.DefaultOptions())
	assert.ErrorContains(t, classify(err), "syntax error: ")

	_, err = compiler.Compile(ctx, "", []byte("a = b;"), compiler.DefaultOptions())
	assert.ErrorContains(t, classify(err), "semantic error: ")
}
