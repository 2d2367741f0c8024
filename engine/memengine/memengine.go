// Package memengine is an in-memory engine.Engine used by the CLI's
// default run mode and by every compiler test that needs real mutation
// semantics instead of a hand-rolled mock. It has no durability and no
// partitioning — the bar it clears is "implements every operation the
// compiler actually calls, correctly enough to exercise the
// dispatcher's retry and locking logic."
//
// Concurrency control is plain stdlib locking: a sync.Mutex guards the
// tables and nameLocks maps, and each table's rows, writer flag and
// reader count sit behind its own sync.RWMutex. No ecosystem in-memory
// table-store library
// appears anywhere in the example corpus, so this is plain standard
// library, the same way the teacher reaches for sync primitives
// directly in database/concurrent.go rather than a pooling library.
package memengine

import (
	"sort"
	"sync"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/engine"
	"github.com/vertsql/vertsql/rowcopy"
	"github.com/vertsql/vertsql/sqlerr"
)

type table struct {
	mu               sync.RWMutex
	structure        engine.TableStructure
	rows             [][]any
	structureVersion int64
	writerHeld       bool
	readerCount      int
}

// Engine is the in-memory engine.Engine implementation.
type Engine struct {
	mu        sync.Mutex
	tables    map[string]*table
	nameLocks map[string]bool
}

// New builds an empty Engine.
func New() *Engine {
	return &Engine{tables: map[string]*table{}, nameLocks: map[string]bool{}}
}

func (e *Engine) Status(_ engine.SecurityContext, _ string, name string) engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tables[name]; ok {
		return engine.Exists
	}
	if e.nameLocks[name] {
		return engine.Reserved
	}
	return engine.DoesNotExist
}

func (e *Engine) Lock(_ engine.SecurityContext, name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.nameLocks[name] {
		return false
	}
	e.nameLocks[name] = true
	return true
}

func (e *Engine) Unlock(_ engine.SecurityContext, name string, writer engine.Writer) {
	e.mu.Lock()
	delete(e.nameLocks, name)
	e.mu.Unlock()
	if writer != nil {
		writer.Close()
	}
}

func (e *Engine) CreateTable(_ engine.SecurityContext, _, _ string, structure engine.TableStructure) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tables[structure.Name]; ok {
		return sqlerr.New(sqlerr.AlreadyExists, 0, "table %q already exists", structure.Name)
	}
	e.tables[structure.Name] = &table{structure: structure, structureVersion: 1}
	return nil
}

func (e *Engine) getTable(name string) (*table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[name]
	if !ok {
		return nil, sqlerr.New(sqlerr.Semantic, 0, "table %q does not exist", name)
	}
	return t, nil
}

func (e *Engine) GetReader(_ engine.SecurityContext, name string, version int64) (engine.Reader, error) {
	t, err := e.getTable(name)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	if version != engine.AnyVersion && version != t.structureVersion {
		t.mu.Unlock()
		return nil, sqlerr.New(sqlerr.ReaderOutOfDate, 0, "table %q structure version %d, wanted %d", name, t.structureVersion, version)
	}
	t.readerCount++
	t.mu.Unlock()
	return &reader{engine: e, table: t, version: t.structureVersion}, nil
}

func (e *Engine) GetWriter(_ engine.SecurityContext, name string) (engine.Writer, error) {
	t, err := e.getTable(name)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writerHeld {
		return nil, sqlerr.New(sqlerr.Busy, 0, "table %q already has an active writer", name)
	}
	t.writerHeld = true
	return &writer{table: t}, nil
}

func (e *Engine) LockReaders(name string) bool {
	t, err := e.getTable(name)
	if err != nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readerCount > 0 {
		return false
	}
	return true
}

func (e *Engine) UnlockReaders(name string) {}

func (e *Engine) Remove(_ engine.SecurityContext, _, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.tables, name)
	return nil
}

func (e *Engine) RemoveDirectory(_, name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tables[name]; !ok {
		return false
	}
	delete(e.tables, name)
	return true
}

func (e *Engine) NewTextLoader() engine.TextLoader {
	return NewTextLoader(e)
}

func (e *Engine) TableNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.tables))
	for name := range e.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// zeroValue returns the value a freshly added column reads as, and the
// placeholder every pre-existing row gets at that column when a column
// is added.
func zeroValue(t coltype.Type) any {
	switch t {
	case coltype.Boolean:
		return false
	case coltype.Byte:
		return byte(0)
	case coltype.Short:
		return int16(0)
	case coltype.Char:
		return rune(0)
	case coltype.Int:
		return int32(0)
	case coltype.Long, coltype.Date, coltype.Timestamp:
		return int64(0)
	case coltype.Float:
		return float32(0)
	case coltype.Double:
		return float64(0)
	case coltype.String, coltype.Symbol:
		return ""
	case coltype.Binary:
		return []byte(nil)
	case coltype.Long256:
		return rowcopy.Long256{}
	default:
		return nil
	}
}
