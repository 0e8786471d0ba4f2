package supervisor

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ExitCodeZero(t *testing.T) {
	s := New(nil, "sh", "-c", "exit 0")
	s.Stdin = nil

	code, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestRun_NonZeroExitCode(t *testing.T) {
	s := New(nil, "sh", "-c", "exit 3")
	s.Stdin = nil

	code, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestRun_MissingBinary(t *testing.T) {
	s := New(nil, "definitely-not-a-real-binary-xyz")
	s.Stdin = nil

	_, err := s.Run(context.Background())
	assert.Error(t, err)
}

func TestRun_StdoutPassthrough(t *testing.T) {
	out, err := os.CreateTemp(t.TempDir(), "stdout")
	require.NoError(t, err)
	defer out.Close()

	s := New(nil, "sh", "-c", "echo hello")
	s.Stdin = nil
	s.Stdout = out

	code, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	data, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestRun_ContextCancelKillsChild(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	s := New(nil, "sh", "-c", "sleep 30")
	s.Stdin = nil

	start := time.Now()
	code, err := s.Run(ctx)
	assert.Less(t, time.Since(start), 5*time.Second)
	// Killed child: non-zero code, no wait error.
	require.NoError(t, err)
	assert.NotEqual(t, 0, code)
}
