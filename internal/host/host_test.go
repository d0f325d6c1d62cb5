package host

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dunelang/dune/internal/lang"
)

// fakeEnv is an in-memory Environment double, so these tests exercise Shell's
// dispatch and path-resolution logic without touching the real filesystem.
type fakeEnv struct {
	home    string
	renamed [][2]string
	removed []string
	made    []string
	written []string
	entries map[string][]os.DirEntry
	dirs    map[string]bool
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{home: "/home/u", entries: map[string][]os.DirEntry{}, dirs: map[string]bool{}}
}

func (f *fakeEnv) Getwd() (string, error)  { return f.home, nil }
func (f *fakeEnv) Chdir(path string) error { return nil }
func (f *fakeEnv) Canonicalize(path string) (string, error) {
	return path, nil
}
func (f *fakeEnv) ReadDir(path string) ([]os.DirEntry, error) {
	return f.entries[path], nil
}
func (f *fakeEnv) Rename(oldpath, newpath string) error {
	f.renamed = append(f.renamed, [2]string{oldpath, newpath})
	return nil
}
func (f *fakeEnv) RemoveDirAll(path string) error { f.removed = append(f.removed, path); return nil }
func (f *fakeEnv) RemoveFile(path string) error   { f.removed = append(f.removed, path); return nil }
func (f *fakeEnv) CreateDirAll(path string) error { f.made = append(f.made, path); return nil }
func (f *fakeEnv) WriteEmptyFile(path string) error {
	f.written = append(f.written, path)
	return nil
}
func (f *fakeEnv) HomeDirectory() (string, error) { return f.home, nil }
func (f *fakeEnv) IsDir(path string) (bool, error) {
	if f.dirs[path] {
		return true, nil
	}
	return false, nil
}

func Test_Shell_startsAtHomeDirectory(t *testing.T) {
	env := newFakeEnv()
	s, err := NewShell(env)
	require.NoError(t, err)
	assert.Equal(t, "/home/u", s.Cwd())
}

func Test_Shell_pwdPushesCwd(t *testing.T) {
	env := newFakeEnv()
	s, _ := NewShell(env)
	m := lang.NewMachine(s)
	s.Dispatch(m, lang.BuiltinWorkingDir, 0)
	assert.Equal(t, lang.NewString("/home/u"), m.Pop())
}

func Test_Shell_cdUpdatesCwd(t *testing.T) {
	env := newFakeEnv()
	s, _ := NewShell(env)
	m := lang.NewMachine(s)
	m.Push(lang.NewString("projects"))
	s.Dispatch(m, lang.BuiltinChangeDir, 1)
	m.Pop()
	assert.Equal(t, "/home/u/projects", s.Cwd())
}

func Test_Shell_mvRenamesRelativeToCwd(t *testing.T) {
	env := newFakeEnv()
	s, _ := NewShell(env)
	m := lang.NewMachine(s)
	// arguments are pushed in reverse source order, as evalCall does for
	// `mv "old.txt" "new.txt"`, so the first argument ends up on top.
	m.Push(lang.NewString("new.txt"))
	m.Push(lang.NewString("old.txt"))
	s.Dispatch(m, lang.BuiltinMove, 2)
	m.Pop()
	require.Len(t, env.renamed, 1)
	assert.Equal(t, "/home/u/old.txt", env.renamed[0][0])
	assert.Equal(t, "/home/u/new.txt", env.renamed[0][1])
}

func Test_Shell_mkdirAndMkfCreateRelativeToCwd(t *testing.T) {
	env := newFakeEnv()
	s, _ := NewShell(env)
	m := lang.NewMachine(s)

	m.Push(lang.NewString("newdir"))
	s.Dispatch(m, lang.BuiltinMakeDir, 1)
	m.Pop()
	assert.Equal(t, []string{"/home/u/newdir"}, env.made)

	m.Push(lang.NewString("newfile.txt"))
	s.Dispatch(m, lang.BuiltinMakeFile, 1)
	m.Pop()
	assert.Equal(t, []string{"/home/u/newfile.txt"}, env.written)
}

func Test_Shell_rmRemovesFileRelativeToCwd(t *testing.T) {
	env := newFakeEnv()
	s, _ := NewShell(env)
	m := lang.NewMachine(s)
	m.Push(lang.NewString("gone.txt"))
	s.Dispatch(m, lang.BuiltinRemove, 1)
	m.Pop()
	assert.Equal(t, []string{"/home/u/gone.txt"}, env.removed)
}

func Test_Shell_rmRemovesDirectoryRecursively(t *testing.T) {
	env := newFakeEnv()
	env.dirs["/home/u/stuff"] = true
	s, _ := NewShell(env)
	m := lang.NewMachine(s)
	m.Push(lang.NewString("stuff"))
	s.Dispatch(m, lang.BuiltinRemove, 1)
	m.Pop()
	assert.Equal(t, []string{"/home/u/stuff"}, env.removed)
}

func Test_Shell_exitInvokesHook(t *testing.T) {
	env := newFakeEnv()
	s, _ := NewShell(env)
	var gotCode int
	s.Exit = func(code int) { gotCode = code }
	m := lang.NewMachine(s)
	m.Push(lang.NewNumber(7))
	s.Dispatch(m, lang.BuiltinExit, 1)
	m.Pop()
	assert.Equal(t, 7, gotCode)
}
