package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Path(t *testing.T) {
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name string
		dir  string
		ext  string
		want string
	}{
		{
			name: "log file",
			dir:  "markerlogs",
			ext:  "log",
			want: filepath.Join("markerlogs", "markers.20260212_213836.log"),
		},
		{
			name: "relative path with dot",
			dir:  "./markerlogs",
			ext:  "log",
			want: filepath.Join(".", "markerlogs", "markers.20260212_213836.log"),
		},
		{
			name: "metrics file",
			dir:  filepath.Join("/var", "log", "markers"),
			ext:  "metrics.json",
			want: filepath.Join("/var", "log", "markers", "markers.20260212_213836.metrics.json"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewSession(tt.dir, start).Path(tt.ext))
		})
	}
}

func TestSession_OpenCreatesDirAndAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	s := NewSession(dir, time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC))

	for _, line := range []string{"first\n", "second\n"} {
		f, err := s.Open("log")
		require.NoError(t, err)
		_, err = f.WriteString(line)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	data, err := os.ReadFile(s.Path("log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}
