// Package store persists a dune session -- the register tree and working
// directory a Machine has accumulated -- to a local SQLite database, so a
// REPL invoked with -s/--session can resume exactly where an earlier one
// left off.
package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dunelang/dune/internal/lang"
)

// EncodedValue is a plain, exported mirror of lang.Value suitable for
// rezi's reflection-based struct encoding (lang.Value itself keeps its
// fields unexported so callers can't construct an inconsistent variant).
// Function values are not persisted: a closure's meaning is tied to the
// live Machine it was defined against, so ToEncoded drops them to the
// absent marker rather than serializing something unusable on restore.
type EncodedValue struct {
	Kind      int
	Num       float64
	Str       string
	ListItems []EncodedValue
	TreeOrder []string
	TreeItems map[string]EncodedValue
}

// ToEncoded converts a live Value into its persisted form.
func ToEncoded(v lang.Value) EncodedValue {
	switch v.Kind() {
	case lang.KindNumber:
		return EncodedValue{Kind: int(lang.KindNumber), Num: v.Num()}
	case lang.KindString:
		return EncodedValue{Kind: int(lang.KindString), Str: v.Str()}
	case lang.KindList:
		l := v.List()
		items := make([]EncodedValue, 0, l.Len())
		for i := 0; i < l.Len(); i++ {
			items = append(items, ToEncoded(l.At(i).Val))
		}
		return EncodedValue{Kind: int(lang.KindList), ListItems: items}
	case lang.KindTree:
		t := v.Tree()
		keys := t.Keys()
		items := make(map[string]EncodedValue, len(keys))
		for _, k := range keys {
			items[k] = ToEncoded(t.Get(k).Val)
		}
		return EncodedValue{Kind: int(lang.KindTree), TreeOrder: keys, TreeItems: items}
	default:
		// KindFunction, or the zero Value: persisted as the absent marker.
		return EncodedValue{Kind: int(lang.KindNumber)}
	}
}

// FromEncoded reconstructs a live Value from its persisted form.
func FromEncoded(e EncodedValue) lang.Value {
	switch lang.Kind(e.Kind) {
	case lang.KindNumber:
		return lang.NewNumber(e.Num)
	case lang.KindString:
		return lang.NewString(e.Str)
	case lang.KindList:
		items := make([]lang.Value, len(e.ListItems))
		for i, it := range e.ListItems {
			items[i] = FromEncoded(it)
		}
		return lang.NewList(items...)
	case lang.KindTree:
		tv := lang.NewTreeValue()
		for _, k := range e.TreeOrder {
			tv.Tree().Set(k, FromEncoded(e.TreeItems[k]))
		}
		return tv
	default:
		return lang.NewNumber(0)
	}
}

// Snapshot is the full persisted state of one session.
type Snapshot struct {
	Cwd           string
	RegisterOrder []string
	Registers     map[string]EncodedValue
}

// SnapshotMachine captures m's current user-assigned registers (the host
// primitive functions are excluded -- they are reconstructed fresh by
// lang.NewMachine on restore, not persisted) and cwd.
func SnapshotMachine(m *lang.Machine, cwd string) Snapshot {
	keys := m.UserRegisterKeys()
	regs := make(map[string]EncodedValue, len(keys))
	for _, k := range keys {
		regs[k] = ToEncoded(m.Registers().Get(k).Val)
	}
	return Snapshot{Cwd: cwd, RegisterOrder: keys, Registers: regs}
}

// RestoreMachine rebinds every register in snap into m, in the order it was
// originally defined.
func RestoreMachine(m *lang.Machine, snap Snapshot) {
	for _, k := range snap.RegisterOrder {
		m.Store(k, FromEncoded(snap.Registers[k]))
	}
}

// SessionStore is a SQLite-backed repository of Snapshots, keyed by a UUID
// session ID, grounded on the teacher's sessions DAO: rezi encodes the
// payload to bytes, which are then base64-encoded into a TEXT column.
type SessionStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at file and
// ensures its schema exists.
func Open(file string) (*SessionStore, error) {
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	s := &SessionStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SessionStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT NOT NULL PRIMARY KEY,
		state TEXT NOT NULL,
		created INTEGER NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("init session store schema: %w", err)
	}
	return nil
}

func (s *SessionStore) Close() error { return s.db.Close() }

// Save persists snap. If id is empty a fresh UUID is generated; Save always
// returns the ID the session was stored under.
func (s *SessionStore) Save(ctx context.Context, id string, snap Snapshot) (string, error) {
	if id == "" {
		newID, err := uuid.NewRandom()
		if err != nil {
			return "", fmt.Errorf("generate session id: %w", err)
		}
		id = newID.String()
	}

	data := rezi.EncBinary(snap)
	encoded := base64.StdEncoding.EncodeToString(data)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, state, created) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET state=excluded.state`,
		id, encoded, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("save session %s: %w", id, err)
	}
	return id, nil
}

// Load retrieves the Snapshot stored under id.
func (s *SessionStore) Load(ctx context.Context, id string) (Snapshot, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, id).Scan(&encoded)
	if err == sql.ErrNoRows {
		return Snapshot{}, fmt.Errorf("no session with id %s", id)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load session %s: %w", id, err)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode session %s: %w", id, err)
	}

	var snap Snapshot
	n, err := rezi.DecBinary(data, &snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	if n != len(data) {
		return Snapshot{}, fmt.Errorf("session %s: decoded %d/%d bytes", id, n, len(data))
	}
	return snap, nil
}
