package parse

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/andrewchambers/cfront/cpp"
	"modernc.org/strutil"
)

func formatAs(s func(v interface{}) string) func(f strutil.Formatter, v interface{}, prefix, suffix string) {
	return func(f strutil.Formatter, v interface{}, prefix, suffix string) {
		f.Format(prefix)
		f.Format("%s", s(v))
		f.Format(suffix)
	}
}

func typeHook(v interface{}) string { return v.(CType).String() }

var printHooks = strutil.PrettyPrintHooks{
	reflect.TypeOf(cpp.FilePos{}):        formatAs(func(v interface{}) string { return v.(cpp.FilePos).String() }),
	reflect.TypeOf((*Named)(nil)):        formatAs(typeHook),
	reflect.TypeOf((*Primitive)(nil)):    formatAs(typeHook),
	reflect.TypeOf((*Ptr)(nil)):          formatAs(typeHook),
	reflect.TypeOf((*Array)(nil)):        formatAs(typeHook),
	reflect.TypeOf((*Enum)(nil)):         formatAs(typeHook),
	reflect.TypeOf((*FunctionType)(nil)): formatAs(typeHook),
	reflect.TypeOf((*Constant)(nil)):     formatAs(func(v interface{}) string { return v.(*Constant).Spelling }),
}

// Dump returns an indented listing of a translation unit or any node in
// it. Types and constants are shown in their short form.
func Dump(v interface{}) string {
	return strutil.PrettyString(v, "", "", printHooks)
}

// ExprString renders an expression in C syntax with every compound
// subexpression parenthesized.
func ExprString(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *Ident:
		sb.WriteString(e.Name)
	case *Constant:
		sb.WriteString(e.Spelling)
	case *String:
		if e.Wide {
			sb.WriteByte('L')
		}
		fmt.Fprintf(sb, "\"%s\"", e.Val)
	case *Group:
		writeExpr(sb, e.Expr)
	case *Unop:
		fmt.Fprintf(sb, "(%s", e.Op)
		writeExpr(sb, e.Operand)
		sb.WriteByte(')')
	case *Binop:
		sb.WriteByte('(')
		writeExpr(sb, e.L)
		if e.Op == "," {
			sb.WriteString(", ")
		} else {
			fmt.Fprintf(sb, " %s ", e.Op)
		}
		writeExpr(sb, e.R)
		sb.WriteByte(')')
	case *Assign:
		sb.WriteByte('(')
		writeExpr(sb, e.L)
		fmt.Fprintf(sb, " %s ", e.Op)
		writeExpr(sb, e.R)
		sb.WriteByte(')')
	case *Ternary:
		sb.WriteByte('(')
		writeExpr(sb, e.Cond)
		sb.WriteString(" ? ")
		writeExpr(sb, e.Then)
		sb.WriteString(" : ")
		writeExpr(sb, e.Else)
		sb.WriteByte(')')
	case *Call:
		writeExpr(sb, e.Func)
		sb.WriteByte('(')
		for i, arg := range e.Args {
			if i != 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, arg)
		}
		sb.WriteByte(')')
	case *Index:
		writeExpr(sb, e.Arr)
		sb.WriteByte('[')
		writeExpr(sb, e.Idx)
		sb.WriteByte(']')
	case *Selector:
		writeExpr(sb, e.Operand)
		sb.WriteString(e.Op)
		sb.WriteString(e.Sel)
	case *PostIncDec:
		sb.WriteByte('(')
		writeExpr(sb, e.Operand)
		sb.WriteString(e.Op)
		sb.WriteByte(')')
	case *Cast:
		fmt.Fprintf(sb, "((%s)", typeString(e.Type))
		writeExpr(sb, e.Operand)
		sb.WriteByte(')')
	case *CompoundLiteral:
		fmt.Fprintf(sb, "(%s)", typeString(e.Type))
		writeExpr(sb, e.Init)
	case *SizeofExpr:
		sb.WriteString("sizeof(")
		writeExpr(sb, e.Operand)
		sb.WriteByte(')')
	case *SizeofType:
		fmt.Fprintf(sb, "sizeof(%s)", typeString(e.Type))
	case *InitializerList:
		sb.WriteByte('{')
		for i, init := range e.Inits {
			if i != 0 {
				sb.WriteString(", ")
			}
			for _, d := range init.Designators {
				if d.Field != "" {
					sb.WriteString("." + d.Field)
				} else {
					sb.WriteByte('[')
					writeExpr(sb, d.Index)
					sb.WriteByte(']')
				}
			}
			if len(init.Designators) != 0 {
				sb.WriteString(" = ")
			}
			writeExpr(sb, init.Val)
		}
		sb.WriteByte('}')
	default:
		fmt.Fprintf(sb, "<%T>", e)
	}
}
