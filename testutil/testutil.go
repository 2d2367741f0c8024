// Package testutil provides a YAML-driven golden-test harness for the
// compiler, grounded on the teacher's own TestCase/ReadTests/RunTest
// pattern but adapted to this module's domain: instead of diffing a
// current/desired schema pair into migration DDL, a TestCase runs a
// sequence of statements against one Compiler and asserts either the
// tab-separated output of a final SELECT or an expected error.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/compiler"
	"github.com/vertsql/vertsql/config"
	"github.com/vertsql/vertsql/engine"
	"github.com/vertsql/vertsql/engine/memengine"
	"github.com/vertsql/vertsql/util"
)

func init() {
	util.InitSlog()
}

// TestCase is one golden test: a setup sequence, a final statement, and
// an expectation on either its result rows or its error.
type TestCase struct {
	Setup  []string `yaml:"setup"`            // statements run before Query, must all succeed
	Query  string    `yaml:"query"`            // the statement under test
	Expect *string   `yaml:"expect,omitempty"` // expected tab-separated SELECT output (header + rows)
	Error  *string   `yaml:"error,omitempty"`  // expected substring of Query's error
	Kind   *string   `yaml:"kind,omitempty"`   // expected CompiledQuery.Kind.String(), for mutation-only cases
	Config *config.Compiler `yaml:"config,omitempty"`
}

// ReadTests loads every YAML file matching pattern into a name → TestCase
// map, the same glob-and-decode shape as the teacher's ReadTests, minus
// the database-flavor/version bookkeeping this module has no equivalent
// of (one in-memory engine, no driver matrix).
func ReadTests(pattern string) (map[string]TestCase, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	ret := map[string]TestCase{}
	fileOf := map[string]string{}

	for _, file := range files {
		var tests map[string]*TestCase

		buf, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		dec := yaml.NewDecoder(bytes.NewReader(buf), yaml.DisallowUnknownField())
		if err := dec.Decode(&tests); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		for name, test := range tests {
			if existing, ok := fileOf[name]; ok {
				return nil, fmt.Errorf("duplicate test case name %q: defined in both %q and %q", name, existing, file)
			}
			fileOf[name] = file
			ret[name] = *test
		}
	}

	return ret, nil
}

// RunTest runs one TestCase against a fresh Compiler over a fresh
// in-memory engine, matching the teacher's one-case-one-fresh-database
// isolation.
func RunTest(t *testing.T, test TestCase) {
	t.Helper()

	cfg := config.Default()
	if test.Config != nil {
		cfg = config.Merge(cfg, *test.Config)
	}
	c := compiler.New(memengine.New(), cfg)
	ctx := context.Background()

	for _, stmt := range test.Setup {
		if _, err := c.Compile(ctx, nil, stmt); err != nil {
			t.Fatalf("setup statement %q: %v", stmt, err)
		}
	}

	result, err := c.Compile(ctx, nil, test.Query)

	if test.Error != nil {
		require.Error(t, err, "expected error containing %q, got none", *test.Error)
		assert.Contains(t, err.Error(), *test.Error)
		return
	}
	require.NoError(t, err, "compiling %q", test.Query)

	if test.Kind != nil {
		assert.Equal(t, *test.Kind, result.Kind.String())
	}

	if test.Expect != nil {
		actual, err := RenderRows(result)
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(*test.Expect), strings.TrimSpace(actual))
	}
}

// RenderRows drains a SELECT's CompiledQuery into the same tab-separated,
// header-first text cmd/vertsql prints to stdout, so golden files can
// assert on plain text instead of hand-walking a RecordCursor.
func RenderRows(q *compiler.CompiledQuery) (string, error) {
	if q.Factory == nil {
		return "", fmt.Errorf("testutil: RenderRows called on a %s result, which has no rows", q.Kind)
	}

	meta := q.Factory.Metadata()
	cursor, err := q.Factory.GetCursor(context.Background())
	if err != nil {
		return "", err
	}
	defer cursor.Close()

	var out strings.Builder
	names := make([]string, meta.ColumnCount())
	for i := range names {
		names[i] = meta.ColumnName(i)
	}
	out.WriteString(strings.Join(names, "\t"))
	out.WriteString("\n")

	for cursor.Next() {
		rec := cursor.Record()
		cells := make([]string, meta.ColumnCount())
		for i := range cells {
			cells[i] = formatCell(rec, i, meta.ColumnType(i))
		}
		out.WriteString(strings.Join(cells, "\t"))
		out.WriteString("\n")
	}
	return out.String(), nil
}

// formatCell mirrors cmd/vertsql's own accessor dispatch; kept as a
// private duplicate rather than an exported dependency from cmd, since
// a test helper package should not import a main package.
func formatCell(rec engine.Record, i int, t coltype.Type) string {
	switch t {
	case coltype.Boolean:
		return fmt.Sprintf("%t", rec.GetBool(i))
	case coltype.Byte:
		return fmt.Sprintf("%d", rec.GetByte(i))
	case coltype.Short:
		return fmt.Sprintf("%d", rec.GetShort(i))
	case coltype.Char:
		return string(rec.GetChar(i))
	case coltype.Int:
		return fmt.Sprintf("%d", rec.GetInt(i))
	case coltype.Long, coltype.Date, coltype.Timestamp:
		return fmt.Sprintf("%d", rec.GetLong(i))
	case coltype.Float:
		return fmt.Sprintf("%g", rec.GetFloat(i))
	case coltype.Double:
		return fmt.Sprintf("%g", rec.GetDouble(i))
	case coltype.String:
		return rec.GetStr(i)
	case coltype.Symbol:
		return rec.GetSym(i)
	case coltype.Binary:
		return fmt.Sprintf("%x", rec.GetBin(i))
	default:
		return ""
	}
}

// MustExecute runs an external command and fails the test if it errors,
// kept for integration tests that shell out to the built cmd/vertsql
// binary rather than driving the compiler in-process.
func MustExecute(t *testing.T, command string, args ...string) string {
	t.Helper()
	out, err := Execute(command, args...)
	if err != nil {
		t.Fatalf("failed to execute '%s %s' (error: '%s'): `%s`", command, strings.Join(args, " "), err, out)
	}
	return out
}

func Execute(command string, args ...string) (string, error) {
	cmd := exec.Command(command, args...)
	out, err := cmd.CombinedOutput()
	return strings.ReplaceAll(string(out), "\r\n", "\n"), err
}

// BuildForTest builds cmd/vertsql, adding -cover when GOCOVERDIR is set,
// for TestMain setup in integration tests.
func BuildForTest() {
	args := []string{"build", "-o", "vertsql"}
	if os.Getenv("GOCOVERDIR") != "" {
		args = append(args, "-cover")
	}
	args = append(args, "./cmd/vertsql")
	out, err := exec.Command("go", args...).CombinedOutput()
	if err != nil {
		panic(fmt.Sprintf("building cmd/vertsql: %v: %s", err, out))
	}
}

// WriteFile writes content to path, failing fatally on error, for tests
// that stage a COPY source file.
func WriteFile(path string, content string) {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		panic(err)
	}
}

// StripHeredoc trims a leading newline and any common leading tab
// indentation from a Go raw-string literal used as inline SQL.
func StripHeredoc(heredoc string) string {
	heredoc = strings.TrimPrefix(heredoc, "\n")
	lines := strings.Split(heredoc, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "\t")
	}
	return strings.Join(lines, "\n")
}
