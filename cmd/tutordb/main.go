package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/kong"

	"tutordb"
)

var cli struct {
	File    string `short:"f" help:"Run statements from a SQL script file, then exit."`
	Execute string `short:"e" help:"Execute a single statement, then exit."`
	Prompt  string `default:"sql> " help:"Prompt shown in interactive mode."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("tutordb"),
		kong.Description("Interactive shell for the in-memory SQL engine."),
	)

	shell := &shell{db: tutordb.NewDatabase(), out: os.Stdout}

	switch {
	case cli.Execute != "":
		shell.run(cli.Execute)
	case cli.File != "":
		f, err := os.Open(cli.File)
		kctx.FatalIfErrorf(err)
		defer f.Close()
		kctx.FatalIfErrorf(shell.runScript(f))
	default:
		shell.repl(os.Stdin)
	}
}

type shell struct {
	db  *tutordb.Database
	out io.Writer
}

func (s *shell) repl(in io.Reader) {
	fmt.Fprintln(s.out, "tutordb shell - type .help for help, .quit to exit")
	reader := bufio.NewReader(in)
	var pending strings.Builder
	for {
		if pending.Len() == 0 {
			fmt.Fprint(s.out, cli.Prompt)
		} else {
			fmt.Fprint(s.out, "  -> ")
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		trimmed := strings.TrimSpace(line)
		if pending.Len() == 0 && strings.HasPrefix(trimmed, ".") {
			if s.dotCommand(trimmed) {
				return
			}
			continue
		}
		pending.WriteString(line)
		// Statements accumulate until a terminating semicolon.
		if strings.HasSuffix(trimmed, ";") {
			s.run(pending.String())
			pending.Reset()
		}
	}
}

func (s *shell) runScript(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	var pending strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		pending.WriteString(line)
		pending.WriteString("\n")
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			s.run(pending.String())
			pending.Reset()
		}
	}
	if strings.TrimSpace(pending.String()) != "" {
		s.run(pending.String())
	}
	return scanner.Err()
}

// dotCommand handles shell meta commands; returns true to exit.
func (s *shell) dotCommand(cmd string) bool {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case ".quit", ".exit":
		return true
	case ".help":
		fmt.Fprintln(s.out, ".tables          list tables and views")
		fmt.Fprintln(s.out, ".schema [table]  show CREATE TABLE statements")
		fmt.Fprintln(s.out, ".quit            exit")
	case ".tables":
		for _, name := range sortedNames(s.db.Schemas) {
			fmt.Fprintln(s.out, name)
		}
	case ".schema":
		names := sortedNames(s.db.Schemas)
		if len(fields) > 1 {
			names = []string{fields[1]}
		}
		for _, name := range names {
			schema, ok := s.db.Schemas[name]
			if !ok {
				fmt.Fprintf(s.out, "no such table: %s\n", name)
				continue
			}
			fmt.Fprintln(s.out, schema.String())
		}
	default:
		fmt.Fprintf(s.out, "unknown command %s\n", fields[0])
	}
	return false
}

func (s *shell) run(sql string) {
	next, result, err := tutordb.Run(sql, s.db)
	if err != nil {
		result = tutordb.ErrorResult(err)
	} else {
		s.db = next
	}
	s.print(result)
}

// print renders a result as a column-aligned table.
func (s *shell) print(result tutordb.QueryResult) {
	if len(result.Columns) == 0 {
		return
	}
	widths := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		widths[i] = len(col)
	}
	cells := make([][]string, len(result.Rows))
	for r, row := range result.Rows {
		cells[r] = make([]string, len(result.Columns))
		for i, col := range result.Columns {
			text := row[col].String()
			cells[r][i] = text
			if len(text) > widths[i] {
				widths[i] = len(text)
			}
		}
	}
	printRow(s.out, result.Columns, widths)
	sep := make([]string, len(result.Columns))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	printRow(s.out, sep, widths)
	for _, row := range cells {
		printRow(s.out, row, widths)
	}
}

func printRow(out io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}
	fmt.Fprintln(out, strings.TrimRight(strings.Join(parts, "  "), " "))
}

func sortedNames(schemas map[string]*tutordb.Schema) []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
