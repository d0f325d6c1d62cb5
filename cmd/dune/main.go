/*
Dune starts an interactive session of the dune shell-scripting language.

It opens a REPL that reads, parses, and runs programs in the dune language
against a single long-lived Machine, printing whatever each program leaves on
its value stack. Built-in commands (ls, cd, mv, rm, mkdir, mkf, pwd, exit)
operate on the real filesystem starting from the user's home directory (or
the start_dir set in ~/.dunerc.toml).

Usage:

	dune [flags]

The flags are:

	-v, --version
		Give the current version of dune and then exit.

	-d, --direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading command input even if launched in
		a tty with stdin and stdout.

	-c, --command COMMANDS
		Immediately run the given program and exit rather than starting the
		REPL. The string is tokenized with go-shellquote and split on
		semicolons into multiple top-level programs, each run against the
		same Machine in sequence; quoting a semicolon keeps it out of the
		split.

	-s, --session FILE
		Persist and resume session state (register bindings and working
		directory) in the given SQLite file. If the file already holds a
		saved session, it is resumed; otherwise a new session is started.
		The session is saved on the ":save" REPL command and when the REPL
		or the -c programs finish; the exit built-in ends the process
		without saving.

Once a session has started, input is parsed as dune programs. The REPL
accumulates a program across multiple lines until the parser considers it
complete. To end the session, type ":quit" or send EOF.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/pflag"

	"github.com/dunelang/dune"
	"github.com/dunelang/dune/internal/store"
	"github.com/dunelang/dune/internal/version"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitRunError indicates an unsuccessful program execution due to a
	// problem while running a program.
	ExitRunError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue initializing the engine.
	ExitInitError
)

var (
	returnCode     int     = ExitSuccess
	flagVersion    *bool   = pflag.BoolP("version", "v", false, "Gives the version info")
	forceDirect    *bool   = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible")
	startCommand   *string = pflag.StringP("command", "c", "", "Execute the given program immediately and exit without starting the REPL")
	sessionFile    *string = pflag.StringP("session", "s", "", "Persist and resume session state in the given SQLite file")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	cfg, err := dune.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: loading config: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	eng, err := dune.New(os.Stdin, os.Stdout, cfg, *forceDirect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	defer eng.Close()

	var sessions *store.SessionStore
	var sessionID string
	if *sessionFile != "" {
		path := dune.ExpandHome(*sessionFile)
		sessions, sessionID, err = openOrCreateSession(eng, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: session: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
		eng.UseSessionStore(sessions, sessionID)
	}

	if *startCommand != "" {
		programs, splitErr := splitStartupPrograms(*startCommand)
		if splitErr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: parsing -c command: %s\n", splitErr.Error())
			returnCode = ExitInitError
			return
		}
		for _, program := range programs {
			if strings.TrimSpace(program) == "" {
				continue
			}
			lines, runErr := eng.RunString(program)
			if runErr != nil {
				fmt.Fprintf(os.Stderr, "ERROR: %s\n", runErr.Error())
				returnCode = ExitRunError
				return
			}
			for _, l := range lines {
				fmt.Println(l)
			}
		}
		if sessions != nil {
			saveOnExit(eng, sessions, sessionID)
		}
		return
	}

	if err := eng.RunREPL(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitRunError
	}

	if sessions != nil {
		saveOnExit(eng, sessions, sessionID)
	}
}

// splitStartupPrograms tokenizes a -c/--command argument with go-shellquote
// and regroups the resulting words into top-level programs on unquoted
// semicolons, so a quoted startup command can itself contain spaces or a
// literal ";" without being cut in two.
func splitStartupPrograms(raw string) ([]string, error) {
	// pad unquoted, unescaped semicolons so shellquote yields each as a ";" word
	var padded strings.Builder
	var quote rune
	for i, r := range raw {
		escaped := i > 0 && raw[i-1] == '\\'
		switch {
		case quote == 0 && (r == '"' || r == '\'') && !escaped:
			quote = r
		case quote != 0 && r == quote && (quote == '\'' || !escaped):
			quote = 0
		case quote == 0 && r == ';' && !escaped:
			padded.WriteString(" ; ")
			continue
		}
		padded.WriteRune(r)
	}
	words, err := shellquote.Split(padded.String())
	if err != nil {
		return nil, err
	}

	var programs []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			programs = append(programs, strings.Join(cur, " "))
			cur = nil
		}
	}
	for _, w := range words {
		if w == ";" {
			flush()
			continue
		}
		cur = append(cur, w)
	}
	flush()

	return programs, nil
}

// openOrCreateSession opens the session store at path, restores an existing
// single session's registers and working directory into eng's Machine if one
// is already stored there, and returns the store and the session ID to save
// back to on exit.
func openOrCreateSession(eng *dune.Engine, path string) (*store.SessionStore, string, error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, "", err
	}

	id := sessionIDFromFile(path)
	snap, err := db.Load(context.Background(), id)
	if err == nil {
		store.RestoreMachine(eng.Machine(), snap)
		eng.Shell().SetCwd(snap.Cwd)
	}

	return db, id, nil
}

// sessionIDFromFile returns the fixed ID every session file stores its one
// session under; path does not affect the result.
func sessionIDFromFile(path string) string {
	return "default"
}

// saveOnExit snapshots the Machine's user registers and the shell's working
// directory back to the session store; the store itself is closed later by
// the deferred eng.Close().
func saveOnExit(eng *dune.Engine, sessions *store.SessionStore, id string) {
	snap := store.SnapshotMachine(eng.Machine(), eng.Shell().Cwd())
	if _, err := sessions.Save(context.Background(), id, snap); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: saving session: %s\n", err.Error())
	}
}
