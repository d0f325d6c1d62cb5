// Package host adapts the closed shell verbs (ls, cd, mv, rm, mkdir, mkf,
// pwd, exit) to the operating system. It is the one place the language
// core (internal/lang) touches a filesystem, via the Environment interface,
// so the interpreter itself stays independently testable.
package host

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/dunelang/dune/internal/lang"
)

// Environment is the set of OS operations the shell built-ins need. It
// mirrors the collaborator surface of the original shell almost exactly:
// every call here corresponds to one of its filesystem operations, widened
// to cover the rm/mkdir/mkf verbs the distilled design added.
type Environment interface {
	Getwd() (string, error)
	Chdir(path string) error
	Canonicalize(path string) (string, error)
	ReadDir(path string) ([]os.DirEntry, error)
	Rename(oldpath, newpath string) error
	RemoveDirAll(path string) error
	RemoveFile(path string) error
	CreateDirAll(path string) error
	WriteEmptyFile(path string) error
	HomeDirectory() (string, error)

	// IsDir reports whether path exists and is a directory, used by rm to
	// decide between RemoveDirAll and RemoveFile.
	IsDir(path string) (bool, error)
}

// OSEnvironment is the real, os-package-backed Environment.
type OSEnvironment struct{}

func (OSEnvironment) Getwd() (string, error)  { return os.Getwd() }
func (OSEnvironment) Chdir(path string) error { return os.Chdir(path) }

func (OSEnvironment) Canonicalize(path string) (string, error) {
	return filepath.Abs(path)
}

func (OSEnvironment) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

func (OSEnvironment) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (OSEnvironment) RemoveDirAll(path string) error { return os.RemoveAll(path) }
func (OSEnvironment) RemoveFile(path string) error   { return os.Remove(path) }
func (OSEnvironment) CreateDirAll(path string) error { return os.MkdirAll(path, 0o755) }

func (OSEnvironment) WriteEmptyFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

func (OSEnvironment) HomeDirectory() (string, error) {
	return os.UserHomeDir()
}

func (OSEnvironment) IsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// Logger receives the built-ins' diagnostic lines: one for every failed
// filesystem call, plus one for each ls and each exit. A nil Logger disables
// this side channel.
type Logger interface {
	Printf(format string, args ...interface{})
}

// Shell implements lang.Builtins against an Environment, tracking its own
// notion of the current working directory exactly as the original did (a
// PathBuf carried on the shell value, not inherited implicitly from the
// process) so that a session restored from disk resumes in the directory it
// left off in.
type Shell struct {
	Env Environment
	Log Logger

	cwd string

	// Exit, when non-nil, is invoked by the exit built-in instead of calling
	// os.Exit directly, so embedding code (and tests) can intercept it.
	Exit func(code int)
}

// NewShell creates a Shell rooted at the invoking user's home directory, the
// same starting point the original shell used.
func NewShell(env Environment) (*Shell, error) {
	home, err := env.HomeDirectory()
	if err != nil {
		return nil, err
	}
	return &Shell{Env: env, cwd: home, Exit: os.Exit}, nil
}

// Cwd returns the shell's current working directory.
func (s *Shell) Cwd() string { return s.cwd }

// SetCwd overrides the shell's working directory, e.g. when restoring a
// persisted session.
func (s *Shell) SetCwd(path string) { s.cwd = path }

func (s *Shell) logf(format string, args ...interface{}) {
	if s.Log != nil {
		s.Log.Printf(format, args...)
	}
}

func (s *Shell) resolve(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.cwd, rel)
}

// Dispatch implements lang.Builtins. Every failure is swallowed at the
// shell-semantics level (spec.md §7: a built-in never aborts the program),
// but is still logged for operators watching the diagnostic side channel.
func (s *Shell) Dispatch(m *lang.Machine, b lang.Builtin, argc int) {
	switch b {
	case lang.BuiltinList:
		s.builtinLs(m, argc)
	case lang.BuiltinChangeDir:
		s.builtinCd(m, argc)
	case lang.BuiltinMove:
		s.builtinMv(m, argc)
	case lang.BuiltinRemove:
		s.builtinRm(m, argc)
	case lang.BuiltinMakeDir:
		s.builtinMkdir(m, argc)
	case lang.BuiltinMakeFile:
		s.builtinMkf(m, argc)
	case lang.BuiltinWorkingDir:
		s.builtinPwd(m, argc)
	case lang.BuiltinExit:
		s.builtinExit(m, argc)
	}
}

func (s *Shell) builtinLs(m *lang.Machine, argc int) {
	dir := s.cwd
	if argc > 0 {
		dir = s.resolve(m.PopStr())
		for i := 1; i < argc; i++ {
			m.Pop()
		}
	}

	entries, err := s.Env.ReadDir(dir)
	if err != nil {
		s.logf("ls %s: %v", dir, err)
		m.Push(lang.NewList())
		return
	}

	names := make([]lang.Value, len(entries))
	for i, e := range entries {
		names[i] = lang.NewString(e.Name())
	}
	s.logf("ls %s: %s", dir, humanize.Comma(int64(len(entries)))+" entries")
	m.Push(lang.NewList(names...))
}

func (s *Shell) builtinCd(m *lang.Machine, argc int) {
	if argc == 0 {
		m.Push(lang.Value{})
		return
	}
	target := m.PopStr()
	for i := 1; i < argc; i++ {
		m.Pop()
	}

	dest := s.resolve(target)
	abs, err := s.Env.Canonicalize(dest)
	if err != nil {
		s.logf("cd %s: %v", dest, err)
		m.Push(lang.Value{})
		return
	}
	s.cwd = abs
	m.Push(lang.Value{})
}

func (s *Shell) builtinMv(m *lang.Machine, argc int) {
	if argc < 2 {
		for i := 0; i < argc; i++ {
			m.Pop()
		}
		m.Push(lang.Value{})
		return
	}
	oldName := m.PopStr()
	newName := m.PopStr()
	for i := 2; i < argc; i++ {
		m.Pop()
	}

	oldPath := s.resolve(oldName)
	newPath := s.resolve(newName)
	if err := s.Env.Rename(oldPath, newPath); err != nil {
		s.logf("mv %s %s: %v", oldPath, newPath, err)
	}
	m.Push(lang.Value{})
}

func (s *Shell) builtinRm(m *lang.Machine, argc int) {
	if argc == 0 {
		m.Push(lang.Value{})
		return
	}
	target := m.PopStr()
	for i := 1; i < argc; i++ {
		m.Pop()
	}

	path := s.resolve(target)
	if isDir, err := s.Env.IsDir(path); err == nil && isDir {
		if err := s.Env.RemoveDirAll(path); err != nil {
			s.logf("rm -r %s: %v", path, err)
		}
	} else if err := s.Env.RemoveFile(path); err != nil {
		s.logf("rm %s: %v", path, err)
	}
	m.Push(lang.Value{})
}

func (s *Shell) builtinMkdir(m *lang.Machine, argc int) {
	if argc == 0 {
		m.Push(lang.Value{})
		return
	}
	target := m.PopStr()
	for i := 1; i < argc; i++ {
		m.Pop()
	}

	path := s.resolve(target)
	if err := s.Env.CreateDirAll(path); err != nil {
		s.logf("mkdir %s: %v", path, err)
	}
	m.Push(lang.Value{})
}

func (s *Shell) builtinMkf(m *lang.Machine, argc int) {
	if argc == 0 {
		m.Push(lang.Value{})
		return
	}
	target := m.PopStr()
	for i := 1; i < argc; i++ {
		m.Pop()
	}

	path := s.resolve(target)
	if err := s.Env.WriteEmptyFile(path); err != nil {
		s.logf("mkf %s: %v", path, err)
	}
	m.Push(lang.Value{})
}

func (s *Shell) builtinPwd(m *lang.Machine, argc int) {
	for i := 0; i < argc; i++ {
		m.Pop()
	}
	m.Push(lang.NewString(s.cwd))
}

func (s *Shell) builtinExit(m *lang.Machine, argc int) {
	code := 0
	if argc > 0 {
		code = int(m.PopNum())
		for i := 1; i < argc; i++ {
			m.Pop()
		}
	}
	s.logf("exit %s", fmt.Sprint(code))
	if s.Exit != nil {
		s.Exit(code)
	}
}
