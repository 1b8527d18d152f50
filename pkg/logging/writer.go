package logging

import (
	"bufio"
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/fatih/color"
)

// Writer receives script output, like starlark print calls, line by line.
// Some implementations support colorization and secrets masking.
type Writer interface {
	io.Writer
	Printf(format string, v ...any)
	WithSession(session string) Writer
}

// NewWriter makes a Writer for script output. If verbose, output goes to wr colorized by session,
// otherwise to the standard logger on DEBUG level and disappears unless debug logging is enabled.
func NewWriter(wr io.Writer, verbose, monochrome bool, secrets []string) Writer {
	if verbose {
		return &colorizedWriter{wr: wr, prefix: ">", secrets: secrets, monochrome: monochrome}
	}
	return &stdLogWriter{prefix: ">", level: "DEBUG", secrets: secrets}
}

// colorizedWriter is a writer that colorizes the output based on the session.
type colorizedWriter struct {
	wr         io.Writer
	prefix     string
	session    string
	secrets    []string
	monochrome bool
}

// WithSession creates a new colorizedWriter for the given session.
func (s *colorizedWriter) WithSession(session string) Writer {
	return &colorizedWriter{wr: s.wr, session: session, prefix: s.prefix, secrets: s.secrets, monochrome: s.monochrome}
}

// Printf writes the given text to io.Writer with the colorized session prefix.
func (s *colorizedWriter) Printf(format string, v ...any) {
	fmt.Fprintf(s, format, v...)
}

// Write writes the given byte slice with the colorized session prefix for each line.
// If the input does not end with a newline, one is added.
func (s *colorizedWriter) Write(p []byte) (n int, err error) {
	colorizer := s.sessionColorizer(s.session)
	scanner := bufio.NewScanner(bytes.NewReader(p))
	for scanner.Scan() {
		line := fmt.Sprintf("[%s] %s %s", s.session, s.prefix, scanner.Text())
		if s.session == "" {
			line = fmt.Sprintf("%s %s", s.prefix, scanner.Text())
		}
		if _, err = io.WriteString(s.wr, colorizer("%s\n", maskSecrets(line, s.secrets))); err != nil {
			return 0, err
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// sessionColorizer picks a stable color for the session
func (s *colorizedWriter) sessionColorizer(session string) func(format string, a ...any) string {
	colors := []color.Attribute{
		color.FgHiRed, color.FgHiGreen, color.FgHiYellow,
		color.FgHiBlue, color.FgHiMagenta, color.FgHiCyan,
		color.FgRed, color.FgGreen, color.FgYellow,
		color.FgBlue, color.FgMagenta, color.FgCyan,
	}
	c := colors[crc32.ChecksumIEEE([]byte(session))%uint32(len(colors))]
	if s.monochrome {
		c = color.Reset
	}
	return color.New(c).SprintfFunc()
}

// stdLogWriter is a writer that writes to the standard log with a prefix and a log level.
type stdLogWriter struct {
	prefix  string
	level   string
	session string
	secrets []string
}

func (w *stdLogWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line == "" {
			continue
		}
		w.Printf("%s", line)
	}
	return len(p), nil
}

// Printf writes the given text to log with the prefix and log level.
func (w *stdLogWriter) Printf(format string, v ...any) {
	msg := maskSecrets(fmt.Sprintf(format, v...), w.secrets)
	if w.session != "" {
		log.Printf("[%s] {%s} %s %s", w.level, w.session, w.prefix, msg)
		return
	}
	log.Printf("[%s] %s %s", w.level, w.prefix, msg)
}

// WithSession makes a copy of the writer tagging lines with the session.
func (w *stdLogWriter) WithSession(session string) Writer {
	return &stdLogWriter{prefix: w.prefix, level: w.level, session: session, secrets: w.secrets}
}

func maskSecrets(s string, secrets []string) string {
	for _, secret := range secrets {
		if strings.TrimSpace(secret) == "" {
			continue
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(secret) + `\b`) // matches the secret only if it appears as a whole word
		s = re.ReplaceAllString(s, "****")
	}
	return s
}
