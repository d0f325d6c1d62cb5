// Package dune implements the REPL engine that drives the language core
// (internal/lang) from an interactive or piped input stream: reading
// program text, accumulating it across lines until the parser has a
// complete program or reports a hard error, running it against a
// long-lived Machine, and printing whatever the run left on the stack.
package dune

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/mattn/go-isatty"

	"github.com/dunelang/dune/internal/host"
	"github.com/dunelang/dune/internal/input"
	"github.com/dunelang/dune/internal/lang"
	"github.com/dunelang/dune/internal/langerr"
	"github.com/dunelang/dune/internal/store"
)

const consoleOutputWidth = 80

// Engine ties together a Machine, its host Shell, and an input/output pair
// into one REPL session. The Machine and Shell persist across every program
// run during the session, exactly as spec'd.
type Engine struct {
	machine *lang.Machine
	shell   *host.Shell

	in  input.Reader
	out *bufio.Writer

	cfg         Config
	forceDirect bool
	useReadline bool
	running     bool

	sessions  *store.SessionStore
	sessionID string

	logger *log.Logger
}

// New creates an Engine reading from inputStream and writing to
// outputStream. If inputStream is nil, stdin is used; if outputStream is
// nil, stdout is used. forceDirectInput disables the readline-backed reader
// even when connected to a real terminal (used by -d/--direct).
func New(inputStream io.Reader, outputStream io.Writer, cfg Config, forceDirectInput bool) (*Engine, error) {
	if inputStream == nil {
		inputStream = os.Stdin
	}
	if outputStream == nil {
		outputStream = os.Stdout
	}

	logger := log.New(os.Stderr, "dune: ", log.LstdFlags)

	shell, err := host.NewShell(host.OSEnvironment{})
	if err != nil {
		return nil, fmt.Errorf("initializing shell environment: %w", err)
	}
	shell.Log = logger

	if cfg.StartDir != "" {
		dir := ExpandHome(cfg.StartDir)
		isDir, err := shell.Env.IsDir(dir)
		if err != nil || !isDir {
			return nil, fmt.Errorf("configured start_dir %q is not a directory", dir)
		}
		shell.SetCwd(dir)
	}

	machine := lang.NewMachine(shell)
	lang.SetOutputHook(func(s string) {
		fmt.Fprint(outputStream, s)
	})

	forceDirectInput = forceDirectInput || cfg.ForceDirect

	eng := &Engine{
		machine:     machine,
		shell:       shell,
		out:         bufio.NewWriter(outputStream),
		cfg:         cfg,
		forceDirect: forceDirectInput,
		logger:      logger,
	}

	eng.useReadline = !forceDirectInput && isInteractive(inputStream, outputStream)

	if eng.useReadline {
		historyFile := cfg.HistoryFile
		if historyFile != "" {
			historyFile = ExpandHome(historyFile)
		}
		eng.in, err = input.NewInteractiveReader(eng.prompt(), historyFile, cfg.HistorySize)
		if err != nil {
			return nil, fmt.Errorf("initializing interactive-mode input reader: %w", err)
		}
	} else {
		eng.in = input.NewDirectReader(inputStream)
	}

	return eng, nil
}

func isInteractive(in io.Reader, out io.Writer) bool {
	f, ok := in.(*os.File)
	if !ok || f != os.Stdin {
		return false
	}
	of, ok := out.(*os.File)
	if !ok || of != os.Stdout {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

// Machine exposes the engine's Machine, e.g. so cmd/dune can restore and
// snapshot its registers for session persistence.
func (eng *Engine) Machine() *lang.Machine { return eng.machine }

// Shell exposes the engine's host Shell, e.g. so cmd/dune can report its
// starting working directory.
func (eng *Engine) Shell() *host.Shell { return eng.shell }

// UseSessionStore wires db as the session store and id as the session this
// engine should save to via the :save REPL command. Callers that resumed
// from a persisted session should restore the Machine's registers (via
// store.RestoreMachine) and the Shell's cwd (via Shell.SetCwd) before the
// first RunREPL/RunString call.
func (eng *Engine) UseSessionStore(db *store.SessionStore, id string) {
	eng.sessions = db
	eng.sessionID = id
}

func (eng *Engine) prompt() string {
	return fmt.Sprintf(eng.cfg.Prompt, eng.shell.Cwd())
}

func (eng *Engine) writeLine(s string) {
	eng.out.WriteString(s)
	eng.out.WriteString("\n")
	eng.out.Flush()
}

// RunString parses and runs src as a single complete program against the
// engine's Machine, returning whatever it left on the stack (most-recently
// pushed first). Unlike RunREPL it does not participate in
// continuation-prompt logic: an incomplete src is returned as a parse error
// like any other malformed program.
func (eng *Engine) RunString(src string) ([]string, error) {
	suite, err := lang.Parse(src)
	if err != nil {
		return nil, err
	}
	lang.Run(eng.machine, suite)
	return eng.machine.DrainForDisplay(), nil
}

// metaCommand handles the REPL's ":"-prefixed session commands, returning
// true if line was one (and so should not be parsed as a program).
func (eng *Engine) metaCommand(line string) bool {
	switch strings.TrimSpace(line) {
	case ":save":
		eng.saveSession()
		return true
	case ":quit", ":exit":
		eng.running = false
		return true
	default:
		return false
	}
}

func (eng *Engine) saveSession() {
	if eng.sessions == nil {
		eng.writeLine("no session store configured; pass -s to enable :save")
		return
	}
	snap := store.SnapshotMachine(eng.machine, eng.shell.Cwd())
	id, err := eng.sessions.Save(context.Background(), eng.sessionID, snap)
	if err != nil {
		eng.logger.Printf("save session: %v", err)
		eng.writeLine("could not save session: " + err.Error())
		return
	}
	eng.sessionID = id
	eng.writeLine("session saved: " + id)
}

// RunREPL reads programs from the engine's input stream until EOF,
// accumulating lines across a parser-reported "need more input" error and
// resetting on either a complete program or a hard syntax error, draining
// and printing the stack after each complete run.
func (eng *Engine) RunREPL() error {
	eng.running = true
	defer func() { eng.running = false }()

	for eng.running {
		program, err := eng.readProgram()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if program == "" {
			continue
		}
		if eng.metaCommand(program) {
			continue
		}

		eng.runOne(program)
	}

	eng.writeLine("")
	return nil
}

// runOne parses and executes one accumulated program, reporting a hard
// syntax error to the user rather than propagating it (spec.md §7: a
// malformed program never aborts the session).
func (eng *Engine) runOne(src string) {
	suite, err := lang.Parse(src)
	if err != nil {
		if se, ok := err.(langerr.SyntaxError); ok {
			eng.writeLine(rosed.Edit(se.FullMessage()).Wrap(consoleOutputWidth).String())
		} else {
			eng.writeLine(err.Error())
		}
		return
	}

	lang.Run(eng.machine, suite)
	for _, v := range eng.machine.DrainForDisplay() {
		eng.writeLine(v)
	}
}

// readProgram accumulates lines from eng.in until the parser either accepts
// a complete program or reports a hard error, per spec.md §4.1/§6's
// "unconsumed suffix is non-empty whitespace" continuation rule.
func (eng *Engine) readProgram() (string, error) {
	var lines []string

	for {
		prompt := eng.prompt()
		if len(lines) > 0 {
			prompt = eng.cfg.ContinuationPrompt
		}

		if icr, ok := eng.in.(*input.InteractiveCommandReader); ok {
			icr.SetPrompt(prompt)
		} else if len(lines) == 0 {
			eng.out.WriteString(prompt)
			eng.out.Flush()
		}

		eng.in.AllowBlank(len(lines) > 0)
		line, readErr := eng.in.ReadCommand()
		if readErr != nil && !(len(lines) > 0 && readErr == io.EOF) {
			return "", readErr
		}
		if readErr == nil {
			lines = append(lines, line)
		}

		src := strings.Join(lines, "\n")
		if strings.TrimSpace(src) == "" {
			if readErr == io.EOF {
				return "", io.EOF
			}
			continue
		}

		_, perr := lang.Parse(src)
		if perr == nil {
			return src, nil
		}
		if se, ok := perr.(langerr.SyntaxError); ok && se.NeedsMore && readErr != io.EOF {
			continue
		}
		return src, nil
	}
}

// Close releases resources associated with the engine's input reader and
// session store.
func (eng *Engine) Close() error {
	if eng.sessions != nil {
		if err := eng.sessions.Close(); err != nil {
			return err
		}
	}
	return eng.in.Close()
}
