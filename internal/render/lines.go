package render

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// LineReader hands out input one line at a time. Its Read method never
// returns more than a single line, so prompt libraries that wrap it in their
// own buffered reader cannot swallow lines meant for the REPL.
type LineReader struct {
	mu      sync.Mutex
	r       *bufio.Reader
	pending []byte
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// ReadLine returns the next line without its trailing newline.
// A final line without newline is returned together with nil error;
// io.EOF is returned once input is exhausted.
func (l *LineReader) ReadLine() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) > 0 {
		line := string(l.pending)
		l.pending = nil
		return strings.TrimRight(line, "\r\n"), nil
	}

	line, err := l.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Read implements io.Reader, returning at most one line per call.
func (l *LineReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) == 0 {
		line, err := l.r.ReadString('\n')
		if line == "" {
			return 0, err
		}
		l.pending = []byte(line)
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}
