package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Session names the files written during one run. All of them share the
// service name and the run's start time, e.g. markers.20260212_213836.log.
type Session struct {
	Dir   string
	Start time.Time
}

// NewSession returns a session rooted at dir.
func NewSession(dir string, start time.Time) Session {
	return Session{Dir: dir, Start: start}
}

// Path returns the session file with the given extension.
func (s Session) Path(ext string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s.%s.%s", ServiceName, s.Start.Format("20060102_150405"), ext))
}

// Open creates the session directory if needed and opens the file for
// appending.
func (s Session) Open(ext string) (*os.File, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}
	f, err := os.OpenFile(s.Path(ext), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", ext, err)
	}
	return f, nil
}
