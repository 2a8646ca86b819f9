package explorer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/prokopk1n/nullannotate/pkg/annotation"
)

// REPL drives explorer.py's interactive command loop: "-f <name>",
// "-o <object file>", "-s <source file>", "-h", "-q", each reading lines
// from in (stdin, or a --cmds file for scripted non-interactive input) and
// writing formatted results to out.
type REPL struct {
	model *Model
	in    *bufio.Scanner
	out   io.Writer
	echo  bool // true when driven from --cmds, mirroring the read line back
}

// NewREPL builds a REPL reading commands from in and writing to out. echo
// should be true when in is a --cmds file, matching explorer.py writing the
// consumed line back to stdout so transcripts stay readable.
func NewREPL(model *Model, in io.Reader, out io.Writer, echo bool) *REPL {
	return &REPL{model: model, in: bufio.NewScanner(in), out: out, echo: echo}
}

// Run executes the command loop until "-q", end of input, or ctx-less EOF.
func (r *REPL) Run() {
	fmt.Fprintln(r.out, "Ready to process commands:")
	r.showHelp()
	fmt.Fprintln(r.out)

	for {
		fmt.Fprint(r.out, "> ")

		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return
		}

		line := r.in.Text()
		if r.echo {
			fmt.Fprintln(r.out, line)
		}

		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue
		case line == "-q":
			return
		case line == "-h":
			r.showHelp()
		case strings.HasPrefix(line, "-f"):
			r.show(r.model.LookupFunction(strings.TrimSpace(line[2:])))
		case strings.HasPrefix(line, "-o"):
			r.show(r.model.LookupObjectFile(strings.TrimSpace(line[2:])))
		case strings.HasPrefix(line, "-s"):
			r.show(r.model.LookupSourceFile(strings.TrimSpace(line[2:])))
		default:
			fmt.Fprintln(r.out, "Invalid command.")
		}
	}
}

func (r *REPL) showHelp() {
	fmt.Fprintln(r.out, "  -f <function>    Show function info")
	fmt.Fprintln(r.out, "  -o <object file> Show object file info")
	fmt.Fprintln(r.out, "  -s <source file> Show source file info")
	fmt.Fprintln(r.out, "  -h               Show this help")
	fmt.Fprintln(r.out, "  -q               Quit")
}

func (r *REPL) show(records []*annotation.Record) {
	plural := "s"
	if len(records) == 1 {
		plural = ""
	}

	fmt.Fprintf(r.out, "Found %d annotation%s\n", len(records), plural)

	for _, rec := range records {
		fmt.Fprintln(r.out)
		r.showOne(rec)
	}
}

var fieldLabel = color.New(color.FgYellow)

func (r *REPL) showOne(rec *annotation.Record) {
	fieldLabel.Fprint(r.out, "Function name: ")
	fmt.Fprintln(r.out, rec.Name)
	fieldLabel.Fprint(r.out, "Signature: ")
	fmt.Fprintln(r.out, rec.Signature)
	fieldLabel.Fprint(r.out, "Object file: ")
	fmt.Fprintln(r.out, rec.ObjectFile)
	fieldLabel.Fprint(r.out, "Source file: ")
	fmt.Fprintln(r.out, rec.SourceFile)
	fieldLabel.Fprint(r.out, "Return annotation: ")
	fmt.Fprintln(r.out, ReturnDescription(rec))

	if len(rec.Params) == 0 {
		return
	}

	fmt.Fprintln(r.out, "Parameter annotations:")

	for _, p := range rec.Params {
		fmt.Fprintf(r.out, "  %s: %s\n", p.Name, ParamDescription(p))
	}
}
