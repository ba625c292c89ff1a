package fetch

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")

	write := func(truncate bool, data string) {
		sink, err := OpenSink(path, truncate, nil)
		require.NoError(t, err)
		_, err = sink.Write([]byte(data))
		require.NoError(t, err)
		require.NoError(t, sink.Close())
	}

	write(false, "Hello")
	write(false, ", World!")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", string(b))

	write(true, "again")
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "again", string(b))
}

func TestOpenSinkStdout(t *testing.T) {
	var stdout bytes.Buffer
	sink, err := OpenSink(Stdout, true, &stdout)
	require.NoError(t, err)

	_, err = sink.Write([]byte("body"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	assert.Equal(t, "body", stdout.String())
}

func TestOpenSinkMissingDir(t *testing.T) {
	_, err := OpenSink(filepath.Join(t.TempDir(), "no", "such", "dir"), false, nil)
	assert.Error(t, err)
}
