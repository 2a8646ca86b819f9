package explorer

import "github.com/prokopk1n/nullannotate/pkg/annotation"

// ReturnDescription renders the human-readable return-shape classification
// explorer.py's show_annotation computes inline, generalized into its own
// function so both the REPL and the MCP tool can reuse it.
func ReturnDescription(r *annotation.Record) string {
	switch r.ReturnKind {
	case annotation.ReturnSigned:
		switch {
		case r.MayReturnNegative && r.MayReturnPositive:
			return "any signed"
		case r.MayReturnNegative:
			return "signed <= 0"
		case r.MayReturnPositive:
			return "signed >= 0"
		default:
			return "signed == 0"
		}
	case annotation.ReturnPointer:
		switch {
		case r.MayReturnNull && r.MayReturnErrPtr:
			return "any pointer"
		case r.MayReturnNull:
			return "valid pointer or NULL"
		case r.MayReturnErrPtr:
			return "valid pointer or ERR_PTR"
		default:
			return "valid pointer"
		}
	default:
		return "other"
	}
}

// ParamDescription renders a single parameter's deref classification.
func ParamDescription(p annotation.Param) string {
	if !p.IsPointer {
		return "other"
	}

	switch {
	case p.MustDeref:
		return "must deref pointer"
	case p.MayDeref:
		return "may deref pointer"
	default:
		return "no deref pointer"
	}
}
