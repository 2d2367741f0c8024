package memengine

import (
	"strconv"
	"strings"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/engine"
	"github.com/vertsql/vertsql/sqlerr"
)

// TextLoader is memengine's engine.TextLoader: it owns the CSV parsing
// the compiler is forbidden from doing itself (spec §4.8 treats the
// text importer as an external collaborator). The compiler only pumps
// byte chunks at Write in AnalyzeStructure/LoadData order; this type
// decides where line boundaries fall, which line is the header, and
// how each field text converts to the destination column's type.
type TextLoader struct {
	engine   *Engine
	writer   engine.Writer
	meta     engine.Metadata
	targets  []int // source field index -> destination column index
	analyzed bool
	leftover []byte
	batch    int
}

// NewTextLoader builds the loader COPY drives for this engine.
func NewTextLoader(e *Engine) *TextLoader {
	return &TextLoader{engine: e}
}

func (l *TextLoader) OpenRO(ctx engine.SecurityContext, destTable string) error {
	writer, err := l.engine.GetWriter(ctx, destTable)
	if err != nil {
		return err
	}
	l.writer = writer
	l.meta = writer.Metadata()
	return nil
}

func (l *TextLoader) Write(ctx engine.SecurityContext, mode engine.LoadMode, buf []byte) (int, error) {
	if len(buf) < 1 {
		return 0, sqlerr.New(sqlerr.IO, 0, "text loader: short read")
	}
	l.leftover = append(l.leftover, buf...)

	var lines []string
	for {
		i := indexByte(l.leftover, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(l.leftover[:i]))
		l.leftover = l.leftover[i+1:]
	}

	rowsLoaded := 0
	for _, line := range lines {
		if mode == engine.AnalyzeStructure && !l.analyzed {
			l.analyzeHeader(line)
			continue
		}
		if err := l.loadLine(line); err != nil {
			return rowsLoaded, err
		}
		rowsLoaded++
	}
	return rowsLoaded, nil
}

func (l *TextLoader) analyzeHeader(line string) {
	fields := splitCSVLine(line)
	l.targets = make([]int, len(fields))
	for i, name := range fields {
		l.targets[i] = l.meta.ColumnIndex(strings.TrimSpace(name))
	}
	l.analyzed = true
}

func (l *TextLoader) loadLine(line string) error {
	if line == "" {
		return nil
	}
	fields := splitCSVLine(line)
	tsIndex := l.meta.TimestampIndex()
	var ts int64
	for i, dstCol := range l.targets {
		if i < len(fields) && dstCol == tsIndex {
			ts, _ = strconv.ParseInt(fields[i], 10, 64)
		}
	}
	row := l.writer.NewRow(ts)
	for i, dstCol := range l.targets {
		if dstCol < 0 || i >= len(fields) {
			continue
		}
		putTextValue(row, dstCol, l.meta.ColumnType(dstCol), fields[i])
	}
	row.Append()

	l.batch++
	if l.batch >= 500 {
		if err := l.writer.Commit(); err != nil {
			return err
		}
		l.batch = 0
	}
	return nil
}

func (l *TextLoader) WrapUp() error {
	if len(l.leftover) > 0 {
		if err := l.loadLine(string(l.leftover)); err != nil {
			l.writer.Close()
			return err
		}
		l.leftover = nil
	}
	if err := l.writer.Commit(); err != nil {
		l.writer.Close()
		return err
	}
	l.writer.Close()
	return nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// splitCSVLine is a bare-bones unquoted-field splitter; quoting and
// embedded commas are out of scope for the in-memory loader.
func splitCSVLine(line string) []string {
	line = strings.TrimSuffix(line, "\r")
	return strings.Split(line, ",")
}

// putTextValue parses one field's text into t's Go representation and
// writes it through row, mirroring rowcopy's per-type dispatch.
func putTextValue(row engine.Row, idx int, t coltype.Type, s string) {
	switch t {
	case coltype.Boolean:
		row.PutBool(idx, s == "true" || s == "TRUE" || s == "t" || s == "1")
	case coltype.Byte:
		n, _ := strconv.ParseInt(s, 10, 8)
		row.PutByte(idx, byte(n))
	case coltype.Short:
		n, _ := strconv.ParseInt(s, 10, 16)
		row.PutShort(idx, int16(n))
	case coltype.Char:
		if len(s) > 0 {
			row.PutChar(idx, []rune(s)[0])
		}
	case coltype.Int:
		n, _ := strconv.ParseInt(s, 10, 32)
		row.PutInt(idx, int32(n))
	case coltype.Long:
		n, _ := strconv.ParseInt(s, 10, 64)
		row.PutLong(idx, n)
	case coltype.Float:
		f, _ := strconv.ParseFloat(s, 32)
		row.PutFloat(idx, float32(f))
	case coltype.Double:
		f, _ := strconv.ParseFloat(s, 64)
		row.PutDouble(idx, f)
	case coltype.Date:
		n, _ := strconv.ParseInt(s, 10, 64)
		row.PutDate(idx, n)
	case coltype.Timestamp:
		n, _ := strconv.ParseInt(s, 10, 64)
		row.PutTimestamp(idx, n)
	case coltype.String:
		row.PutStr(idx, s)
	case coltype.Symbol:
		row.PutSym(idx, s)
	}
}
