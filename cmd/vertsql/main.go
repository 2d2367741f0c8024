// Command vertsql compiles and executes one or more SQL statements
// against an in-memory engine, reading them from a file or stdin the
// same way the teacher's def tools read a schema file (spec §1 "CLI
// entry point").
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/compiler"
	"github.com/vertsql/vertsql/config"
	"github.com/vertsql/vertsql/engine"
	"github.com/vertsql/vertsql/engine/memengine"
	"github.com/vertsql/vertsql/util"
)

var version string

type cliOptions struct {
	File       string `short:"f" long:"file" description:"Read SQL from the file, rather than stdin" value-name:"filename" default:"-"`
	ConfigFile string `short:"c" long:"config" description:"YAML file of compiler tunables" value-name:"filename"`
	DryRun     bool   `long:"dry-run" description:"Print statements other than SELECT/SHOW/EXPLAIN instead of running them"`
	Prompt     bool   `long:"prompt" description:"Prompt for a passphrase before running (held in memory only, never sent anywhere)"`
	Verbose    bool   `long:"verbose" description:"Enable debug logging"`
	Help       bool   `long:"help" description:"Show this help"`
	Version    bool   `long:"version" description:"Show this version"`
}

func parseOptions(args []string) (*cliOptions, []string) {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[option...]"
	rest, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	return &opts, rest
}

func main() {
	opts, _ := parseOptions(os.Args[1:])
	if opts.Verbose {
		os.Setenv("LOG_LEVEL", "debug")
	}
	util.InitSlog()

	if opts.Prompt {
		fmt.Print("Enter passphrase: ")
		if _, err := term.ReadPassword(int(syscall.Stdin)); err != nil {
			log.Fatal(err)
		}
		fmt.Println()
	}

	cfg, err := config.ParseCompilerConfig(opts.ConfigFile)
	if err != nil {
		log.Fatal(err)
	}

	sql, err := readSQL(opts.File)
	if err != nil {
		log.Fatal(err)
	}

	eng := memengine.New()
	c := compiler.New(eng, cfg)
	ctx := context.Background()

	statements := splitStatements(sql)
	for _, stmt := range statements {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if opts.DryRun && !isReadOnlyStatement(stmt) {
			fmt.Printf("-- would run: %s\n", strings.TrimSpace(stmt))
			continue
		}
		result, err := c.Compile(ctx, nil, stmt)
		if err != nil {
			log.Fatal(err)
		}
		printResult(stmt, result)
	}
}

func readSQL(file string) (string, error) {
	if file == "" || file == "-" {
		buf, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(buf), nil
	}
	buf, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", file, err)
	}
	return string(buf), nil
}

// formatCell renders one output cell as tab-separated text, dispatched
// on the column's declared type the way the Record interface requires
// (spec §6.3: every Get accessor is type-specific, there is no generic
// "GetValue").
func formatCell(rec engine.Record, i int, t coltype.Type) string {
	switch t {
	case coltype.Boolean:
		return strconv.FormatBool(rec.GetBool(i))
	case coltype.Byte:
		return strconv.Itoa(int(rec.GetByte(i)))
	case coltype.Short:
		return strconv.Itoa(int(rec.GetShort(i)))
	case coltype.Char:
		return string(rec.GetChar(i))
	case coltype.Int:
		return strconv.Itoa(int(rec.GetInt(i)))
	case coltype.Long, coltype.Date, coltype.Timestamp:
		return strconv.FormatInt(rec.GetLong(i), 10)
	case coltype.Float:
		return strconv.FormatFloat(float64(rec.GetFloat(i)), 'g', -1, 32)
	case coltype.Double:
		return strconv.FormatFloat(rec.GetDouble(i), 'g', -1, 64)
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

// splitStatements splits sql on top-level semicolons, respecting single-
// and double-quoted strings so a `;` inside a string literal doesn't
// end a statement early. This module's grammar has no stored
// procedures or nested `;`-terminated blocks, so a quote-aware scan is
// sufficient without a full re-lex of each candidate split.
func splitStatements(sql string) []string {
	var stmts []string
	var buf strings.Builder
	inSingle, inDouble := false, false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == ';' && !inSingle && !inDouble:
			stmts = append(stmts, buf.String())
			buf.Reset()
			continue
		}
		buf.WriteByte(c)
	}
	if strings.TrimSpace(buf.String()) != "" {
		stmts = append(stmts, buf.String())
	}
	return stmts
}

// isReadOnlyStatement reports whether stmt's leading keyword names a
// statement that never mutates the engine, so --dry-run can still run
// it instead of printing a stub: dry-run exists to preview mutations,
// not to silence SELECT/SHOW/EXPLAIN.
func isReadOnlyStatement(stmt string) bool {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToLower(fields[0]) {
	case "select", "show", "explain":
		return true
	default:
		return false
	}
}

func printResult(stmt string, result *compiler.CompiledQuery) {
	if result.Factory == nil {
		slog.Debug("executed", "statement", strings.TrimSpace(stmt), "kind", result.Kind, "tables", result.Tables)
		return
	}

	meta := result.Factory.Metadata()
	cursor, err := result.Factory.GetCursor(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	defer cursor.Close()

	names := make([]string, meta.ColumnCount())
	for i := range names {
		names[i] = meta.ColumnName(i)
	}
	fmt.Println(strings.Join(names, "\t"))

	for cursor.Next() {
		rec := cursor.Record()
		cells := make([]string, meta.ColumnCount())
		for i := range cells {
			cells[i] = formatCell(rec, i, meta.ColumnType(i))
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
}
