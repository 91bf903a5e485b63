package querylog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Logger appends one line per executed query to an on-disk file and reads the
// tail back for the portal's log view. The file is plain text so it stays
// greppable: `[timestamp] - type: {json params}`.
type Logger struct {
	Path string
}

// Record appends an entry. Failures are logged, not returned; losing a log
// line must never fail the query that produced it.
func (l *Logger) Record(queryType string, params any) {
	if l == nil || l.Path == "" {
		return
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		log.Error().Err(err).Str("type", queryType).Msg("encode query log params")
		return
	}
	line := fmt.Sprintf("[%s] - %s: %s\n",
		time.Now().Format("2006-01-02 15:04:05"), queryType, encoded)

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Error().Err(err).Str("path", l.Path).Msg("open query log")
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		log.Error().Err(err).Str("path", l.Path).Msg("append query log")
	}
}

// Tail returns the last n log lines, oldest first. A missing file is an
// empty log, not an error.
func (l *Logger) Tail(n int) ([]string, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
