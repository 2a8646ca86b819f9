package annotation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseFile reads and parses every Function block in the annotation text
// file at path (§4.F / §6 "Annotation record text format").
func ParseFile(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation file %s: %w", path, err)
	}
	defer f.Close()

	return Parse(path, f)
}

// Parse reads every Function block from r. path is used only for error
// context. Multiple Function blocks per file are allowed (§4.F).
func Parse(path string, r io.Reader) ([]*Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	var records []*Record
	var current *Record

	nextLine := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}

		lineNo++

		return scanner.Text(), true
	}

	for {
		line, ok := nextLine()
		if !ok {
			break
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		fields := strings.Fields(trimmed)

		switch fields[0] {
		case "Function":
			if len(fields) < 2 {
				return nil, parsef(path, lineNo, "Function line missing a name")
			}

			sig, ok := nextLine()
			if !ok {
				return nil, parsef(path, lineNo, "missing signature line for function %s", fields[1])
			}

			current = &Record{Name: fields[1], Signature: sig}
			records = append(records, current)

		case "Param":
			if current == nil {
				return nil, parsef(path, lineNo, "Param token before any Function")
			}

			p, err := parseParam(path, lineNo, fields)
			if err != nil {
				return nil, err
			}

			current.Params = append(current.Params, p)

		case "Returns":
			if current == nil {
				return nil, parsef(path, lineNo, "Returns token before any Function")
			}

			if err := parseReturns(path, lineNo, fields, current); err != nil {
				return nil, err
			}

		default:
			return nil, parsef(path, lineNo, "unexpected token %q", fields[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: read error: %w", path, err)
	}

	return records, nil
}

func parseParam(path string, lineNo int, fields []string) (Param, error) {
	if len(fields) < 3 {
		return Param{}, parsef(path, lineNo, "Param line too short")
	}

	name := fields[1]

	switch fields[2] {
	case "NonPointer":
		return Param{Name: name, IsPointer: false}, nil
	case "Pointer":
		if len(fields) < 4 {
			return Param{}, parsef(path, lineNo, "Param %s missing deref classification", name)
		}

		switch fields[3] {
		case "MustDeref":
			return Param{Name: name, IsPointer: true, MayDeref: true, MustDeref: true}, nil
		case "MayDeref":
			return Param{Name: name, IsPointer: true, MayDeref: true, MustDeref: false}, nil
		case "NoDeref":
			return Param{Name: name, IsPointer: true, MayDeref: false, MustDeref: false}, nil
		default:
			return Param{}, parsef(path, lineNo, "Param %s: unknown deref classification %q", name, fields[3])
		}
	default:
		return Param{}, parsef(path, lineNo, "Param %s: expected Pointer or NonPointer, got %q", name, fields[2])
	}
}

func parseReturns(path string, lineNo int, fields []string, r *Record) error {
	if len(fields) < 2 {
		return parsef(path, lineNo, "Returns line too short")
	}

	switch fields[1] {
	case "Other":
		r.ReturnKind = ReturnOther
		return nil
	case "Pointer":
		if len(fields) < 4 {
			return parsef(path, lineNo, "Returns Pointer missing null/errptr classification")
		}

		r.ReturnKind = ReturnPointer
		r.MayReturnNull = fields[2] == "MayBeNull"
		r.MayReturnErrPtr = fields[3] == "MayBeError"

		return nil
	case "Signed":
		if len(fields) < 4 {
			return parsef(path, lineNo, "Returns Signed missing negative/positive classification")
		}

		r.ReturnKind = ReturnSigned
		r.MayReturnNegative = fields[2] == "MayBeNegative"
		r.MayReturnPositive = fields[3] == "MayBePositive"

		return nil
	default:
		return parsef(path, lineNo, "Returns: unknown kind %q", fields[1])
	}
}

// Serialize renders r in the §4.F text grammar. Parse(Serialize(r))
// reproduces r (§8 invariant 5) except for the object-file and source-file
// fields, which the text does not carry (the collector supplies those from
// plan context).
func Serialize(r *Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Function %s\n", r.Name)
	fmt.Fprintf(&b, "%s\n", r.Signature)

	for _, p := range r.Params {
		if !p.IsPointer {
			fmt.Fprintf(&b, "Param %s NonPointer\n", p.Name)
			continue
		}

		fmt.Fprintf(&b, "Param %s Pointer %s\n", p.Name, derefToken(p))
	}

	switch r.ReturnKind {
	case ReturnPointer:
		fmt.Fprintf(&b, "Returns Pointer %s %s\n",
			boolToken(r.MayReturnNull, "MayBeNull", "NotNull"),
			boolToken(r.MayReturnErrPtr, "MayBeError", "NotError"))
	case ReturnSigned:
		fmt.Fprintf(&b, "Returns Signed %s %s\n",
			boolToken(r.MayReturnNegative, "MayBeNegative", "NotNegative"),
			boolToken(r.MayReturnPositive, "MayBePositive", "NotPositive"))
	default:
		b.WriteString("Returns Other\n")
	}

	return b.String()
}

func derefToken(p Param) string {
	switch {
	case p.MustDeref:
		return "MustDeref"
	case p.MayDeref:
		return "MayDeref"
	default:
		return "NoDeref"
	}
}

func boolToken(v bool, ifTrue, ifFalse string) string {
	if v {
		return ifTrue
	}

	return ifFalse
}
