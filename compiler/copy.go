package compiler

import (
	"io"
	"os"

	"github.com/vertsql/vertsql/engine"
	"github.com/vertsql/vertsql/sqlast"
	"github.com/vertsql/vertsql/sqlerr"
)

// compileCopy handles COPY 'file'|'stdin' INTO t (spec §4.8, §6.2).
// stdin is a remote/streamed form this module has no network layer to
// receive from, so it reports KindCopyRemote without reading anything
// (the loader is the caller's responsibility, per spec). A local path
// never touches the CSV grammar itself: it allocates one
// CopyBufferSize buffer, opens a TextLoader against the destination
// table, primes it with the first chunk in AnalyzeStructure mode, then
// pumps every later chunk at it in LoadData mode until EOF. A short
// read before EOF is fatal; a clean EOF calls WrapUp.
func (c *Compiler) compileCopy(execCtx engine.SecurityContext, model *sqlast.CopyModel) (*CompiledQuery, error) {
	if model.Stdin {
		return &CompiledQuery{Kind: KindCopyRemote, Tables: []string{model.DestTable}}, nil
	}

	path := c.exprs.Get(model.SourceFile).Token
	f, err := os.Open(path)
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.IO, model.Position, err, "COPY: opening %q", path)
	}
	defer f.Close()

	loader := c.Engine.NewTextLoader()
	if err := loader.OpenRO(execCtx, model.DestTable); err != nil {
		return nil, err
	}

	buf := make([]byte, c.Config.CopyBufferSize)
	mode := engine.AnalyzeStructure
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			if _, err := loader.Write(execCtx, mode, buf[:n]); err != nil {
				return nil, sqlerr.Wrap(sqlerr.IO, model.Position, err, "COPY: loading %q", path)
			}
			mode = engine.LoadData
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, sqlerr.Wrap(sqlerr.IO, model.Position, readErr, "COPY: reading %q", path)
		}
		if n < 1 {
			return nil, sqlerr.New(sqlerr.IO, model.Position, "COPY: short read on %q before EOF", path)
		}
	}

	if err := loader.WrapUp(); err != nil {
		return nil, sqlerr.Wrap(sqlerr.IO, model.Position, err, "COPY: finishing %q", path)
	}

	return &CompiledQuery{Kind: KindCopyLocal, Tables: []string{model.DestTable}}, nil
}
