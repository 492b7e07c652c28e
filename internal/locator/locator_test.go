package locator

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/draftwatch/agent/internal/model"
)

func TestParseLockfileWellFormed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lockfile")
	require.NoError(t, os.WriteFile(path, []byte("LeagueClientUx:1234:54321:some-token-value:https"), 0o600))

	creds, err := parseLockfile(path)
	require.NoError(t, err)
	require.Equal(t, 54321, creds.Port)
	require.Equal(t, "some-token-value", creds.AuthToken)
	require.Equal(t, "https", creds.Protocol)
}

func TestParseLockfileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lockfile")
	require.NoError(t, os.WriteFile(path, []byte("not:enough:fields"), 0o600))

	_, err := parseLockfile(path)
	require.Error(t, err)
}

func TestParseLockfileMissing(t *testing.T) {
	_, err := parseLockfile(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestFromLockfileUsesOverridePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, lockfileName), []byte("LeagueClientUx:1:9999:tok:https"), 0o600))

	l := New(dir)
	creds, err := l.fromLockfile()
	require.NoError(t, err)
	require.Equal(t, 9999, creds.Port)
	require.Equal(t, "tok", creds.AuthToken)
}

func TestFromLockfileReturnsPermissionDeniedKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, lockfileName)
	require.NoError(t, os.WriteFile(path, []byte("LeagueClientUx:1:9999:tok:https"), 0o600))

	prior := readFile
	readFile = func(p string) ([]byte, error) {
		return nil, &os.PathError{Op: "open", Path: p, Err: syscall.EACCES}
	}
	defer func() { readFile = prior }()

	l := New(dir)
	_, err := l.fromLockfile()
	require.Error(t, err)

	var aerr *AcquireError
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, PermissionDenied, aerr.Kind, fmt.Sprintf("got %+v", aerr))
}

func TestFinalizeSetsHostAndBumpsGeneration(t *testing.T) {
	l := New("")
	raw := model.Credentials{Port: 1234, AuthToken: "tok"}
	first := l.finalize(raw)
	second := l.finalize(raw)

	require.Equal(t, "127.0.0.1", first.Host)
	require.Equal(t, "https", first.Protocol)
	require.NotEqual(t, first.Generation, second.Generation, "each finalize call bumps the generation counter")
}
