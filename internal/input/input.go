// Package input contains the command readers dune's REPL reads program text
// from: a plain line reader for piped/non-interactive input, and a readline-
// backed reader for an interactive terminal.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Reader is anything the REPL engine can pull one line of input from.
type Reader interface {
	ReadCommand() (string, error)
	AllowBlank(allow bool)
	Close() error
}

// DirectCommandReader reads lines from any generic io.Reader. It does not
// sanitize control or escape sequences and is used for piped/non-TTY input.
//
// DirectCommandReader should not be used directly; instead, create one with
// [NewDirectReader].
type DirectCommandReader struct {
	r             *bufio.Reader
	blanksAllowed bool
}

// InteractiveCommandReader reads lines from stdin using a Go implementation
// of the GNU Readline library, keeping input clear of editing escape
// sequences and enabling command history. It should only be used when
// directly connected to a TTY.
//
// InteractiveCommandReader should not be used directly; instead, create one
// with [NewInteractiveReader].
type InteractiveCommandReader struct {
	rl            *readline.Instance
	blanksAllowed bool
	prompt        string
}

// NewDirectReader creates a new DirectCommandReader over r.
func NewDirectReader(r io.Reader) *DirectCommandReader {
	return &DirectCommandReader{
		r: bufio.NewReader(r),
	}
}

// NewInteractiveReader creates a new InteractiveCommandReader and
// initializes readline. historyFile and historySize configure on-disk
// history persistence; an empty historyFile disables it. The returned
// reader must have Close() called on it before disposal to properly tear
// down readline resources.
func NewInteractiveReader(prompt, historyFile string, historySize int) (*InteractiveCommandReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       prompt,
		HistoryFile:  historyFile,
		HistoryLimit: historySize,
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveCommandReader{
		rl:     rl,
		prompt: prompt,
	}, nil
}

// Close cleans up resources associated with the DirectCommandReader.
func (dcr *DirectCommandReader) Close() error {
	return nil
}

// Close cleans up readline resources associated with the
// InteractiveCommandReader.
func (icr *InteractiveCommandReader) Close() error {
	return icr.rl.Close()
}

// ReadCommand reads the next line. The returned string will only be empty if
// there is an error reading input (or, with AllowBlank set, on a genuinely
// blank line), otherwise this function blocks until a line containing
// non-space characters is read.
//
// At end of input, the returned string is empty and error is io.EOF.
func (dcr *DirectCommandReader) ReadCommand() (string, error) {
	for {
		line, err := dcr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimRight(line, "\r\n")

		if dcr.blanksAllowed || strings.TrimSpace(line) != "" {
			return line, nil
		}
		if err == io.EOF {
			return "", io.EOF
		}
	}
}

// ReadCommand reads the next line from stdin via readline.
func (icr *InteractiveCommandReader) ReadCommand() (string, error) {
	for {
		line, err := icr.rl.Readline()
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		if icr.blanksAllowed || strings.TrimSpace(line) != "" {
			return line, nil
		}
		if err == io.EOF {
			return "", io.EOF
		}
	}
}

// AllowBlank sets whether a genuinely blank line is returned as-is rather
// than skipped. The REPL engine enables this while accumulating a multi-line
// program, where a blank line is meaningful input, not noise.
func (dcr *DirectCommandReader) AllowBlank(allow bool) {
	dcr.blanksAllowed = allow
}

// AllowBlank sets whether a genuinely blank line is returned as-is rather
// than skipped.
func (icr *InteractiveCommandReader) AllowBlank(allow bool) {
	icr.blanksAllowed = allow
}

// SetPrompt updates the prompt text, used by the engine to switch between
// the normal prompt and a continuation prompt.
func (icr *InteractiveCommandReader) SetPrompt(p string) {
	icr.prompt = p
	icr.rl.SetPrompt(p)
}

// GetPrompt gets the current prompt.
func (icr *InteractiveCommandReader) GetPrompt() string {
	return icr.prompt
}
