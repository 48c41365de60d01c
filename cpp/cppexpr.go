package cpp

import (
	"github.com/pkg/errors"
)

/*
   Implements the expression parsing and evaluation for #if statements

   #if expression
       controlled text
   #endif

   expression may be:

   Integer constants.

   Character constants, which are interpreted as they would be in normal code.

   Arithmetic operators for most of C

   defined NAME and defined(NAME). The preprocessor replaces these before
   expanding the line, the evaluator also accepts them when called directly.

   Identifiers that are not macros, which are all considered to be the number zero.
*/

type cppExprCtx struct {
	toks      []*Token
	idx       int
	isDefined func(string) bool
	diags     *Diagnostics
	// Nonzero while parsing an operand whose value is not used,
	// such as the right side of 0 && x.
	skip int
}

func (ctx *cppExprCtx) nextToken() *Token {
	if ctx.idx >= len(ctx.toks) {
		return nil
	}
	tok := ctx.toks[ctx.idx]
	ctx.idx++
	return tok
}

func (ctx *cppExprCtx) peek() *Token {
	if ctx.idx >= len(ctx.toks) {
		return nil
	}
	return ctx.toks[ctx.idx]
}

func parseCPPExprAtom(ctx *cppExprCtx) (int64, error) {
	toCheck := ctx.nextToken()
	if toCheck == nil {
		return 0, errors.New("expected value in expression")
	}
	switch toCheck.Kind {
	case PUNCT:
		switch toCheck.Val {
		case "!":
			v, err := parseCPPExprAtom(ctx)
			if err != nil {
				return 0, err
			}
			if v == 0 {
				return 1, nil
			}
			return 0, nil
		case "~":
			v, err := parseCPPExprAtom(ctx)
			if err != nil {
				return 0, err
			}
			return ^v, nil
		case "-":
			v, err := parseCPPExprAtom(ctx)
			if err != nil {
				return 0, err
			}
			return -v, nil
		case "+":
			return parseCPPExprAtom(ctx)
		case "(":
			v, err := parseCPPExpr(ctx)
			if err != nil {
				return 0, err
			}
			rparen := ctx.nextToken()
			if !rparen.Is(")") {
				return 0, errors.New("missing ')' in expression")
			}
			return v, nil
		}
	case NUMBER:
		switch lit := ParseNumber(toCheck, ctx.diags).(type) {
		case IntLiteral:
			return int64(lit.Val), nil
		default:
			return 0, errors.New("floating constant in preprocessor expression")
		}
	case STRING:
		if toCheck.Char {
			return int64(CharToInt(toCheck, 4, ctx.diags).Val), nil
		}
		return 0, errors.Errorf("token \"%s\" is not valid in preprocessor expressions", toCheck.Spelling())
	case IDENT, KEYWORD:
		if toCheck.Val != "defined" {
			return 0, nil
		}
		name := ctx.nextToken()
		if name == nil {
			return 0, errors.New("operator \"defined\" requires an identifier")
		}
		if name.Is("(") {
			name = ctx.nextToken()
			rparen := ctx.nextToken()
			if name == nil || name.Kind != IDENT || !rparen.Is(")") {
				return 0, errors.New("missing ')' after \"defined\"")
			}
		} else if name.Kind != IDENT {
			return 0, errors.New("operator \"defined\" requires an identifier")
		}
		if ctx.isDefined(name.Val) {
			return 1, nil
		}
		return 0, nil
	}
	return 0, errors.Errorf("token \"%s\" is not valid in preprocessor expressions", toCheck.Spelling())
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func evalCPPBinop(ctx *cppExprCtx, op *Token, l int64, r int64) (int64, error) {
	switch op.Val {
	case "||":
		return boolToInt(l != 0 || r != 0), nil
	case "&&":
		return boolToInt(l != 0 && r != 0), nil
	case "|":
		return l | r, nil
	case "^":
		return l ^ r, nil
	case "&":
		return l & r, nil
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case ">>":
		return l >> uint64(r), nil
	case "<<":
		return l << uint64(r), nil
	case "/", "%":
		if r == 0 {
			if ctx.skip == 0 {
				ctx.diags.Errorf(op.Pos, "division by zero in #if")
			}
			return 0, nil
		}
		if op.Val == "/" {
			return l / r, nil
		}
		return l % r, nil
	case "==":
		return boolToInt(l == r), nil
	case "<":
		return boolToInt(l < r), nil
	case ">":
		return boolToInt(l > r), nil
	case "<=":
		return boolToInt(l <= r), nil
	case ">=":
		return boolToInt(l >= r), nil
	case "!=":
		return boolToInt(l != r), nil
	default:
		return 0, errors.Errorf("internal error %s", op.Val)
	}
}

func parseCPPTernary(ctx *cppExprCtx) (int64, error) {
	cond, err := parseCPPBinop(ctx)
	if err != nil {
		return 0, err
	}
	t := ctx.peek()
	if !t.Is("?") {
		return cond, nil
	}
	ctx.nextToken()
	if cond == 0 {
		ctx.skip++
	}
	a, err := parseCPPExpr(ctx)
	if cond == 0 {
		ctx.skip--
	}
	if err != nil {
		return 0, err
	}
	colon := ctx.nextToken()
	if !colon.Is(":") {
		return 0, errors.New("'?' without following ':'")
	}
	if cond != 0 {
		ctx.skip++
	}
	b, err := parseCPPTernary(ctx)
	if cond != 0 {
		ctx.skip--
	}
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return a, nil
	}
	return b, nil
}

func parseCPPComma(ctx *cppExprCtx) (int64, error) {
	v, err := parseCPPTernary(ctx)
	if err != nil {
		return 0, err
	}
	for ctx.peek().Is(",") {
		ctx.nextToken()
		v, err = parseCPPTernary(ctx)
		if err != nil {
			return 0, err
		}
	}
	return v, nil
}

func getPrec(t *Token) int {
	if t == nil || t.Kind != PUNCT {
		return -1
	}
	switch t.Val {
	case "*", "%", "/":
		return 10
	case "+", "-":
		return 9
	case ">>", "<<":
		return 8
	case "<", ">", ">=", "<=":
		return 7
	case "==", "!=":
		return 6
	case "&":
		return 5
	case "^":
		return 4
	case "|":
		return 3
	case "&&":
		return 2
	case "||":
		return 1
	}
	return -1
}

// This is the precedence climbing algorithm, simplified because
// all the operators are left associative. The CPP doesn't
// deal with assignment operators.
func parseCPPBinop_1(ctx *cppExprCtx, prec int) (int64, error) {
	l, err := parseCPPExprAtom(ctx)
	if err != nil {
		return 0, err
	}
	for {
		t := ctx.peek()
		p := getPrec(t)
		if p == -1 || p < prec {
			break
		}
		ctx.nextToken()
		shortCircuit := (t.Val == "&&" && l == 0) || (t.Val == "||" && l != 0)
		if shortCircuit {
			ctx.skip++
		}
		r, err := parseCPPBinop_1(ctx, p+1)
		if shortCircuit {
			ctx.skip--
		}
		if err != nil {
			return 0, err
		}
		l, err = evalCPPBinop(ctx, t, l, r)
		if err != nil {
			return 0, err
		}
	}
	return l, nil
}

func parseCPPBinop(ctx *cppExprCtx) (int64, error) {
	return parseCPPBinop_1(ctx, 0)
}

func parseCPPExpr(ctx *cppExprCtx) (int64, error) {
	return parseCPPComma(ctx)
}

// evalIfExpr evaluates the tokens of an #if line. Division by zero is
// recorded in diags and yields 0, syntax errors are returned.
func evalIfExpr(isDefined func(string) bool, toks []*Token, diags *Diagnostics) (int64, error) {
	if len(toks) == 0 {
		return 0, errors.New("#if with no expression")
	}
	ctx := &cppExprCtx{isDefined: isDefined, toks: toks, diags: diags}
	ret, err := parseCPPExpr(ctx)
	if err != nil {
		return 0, err
	}
	t := ctx.nextToken()
	if t != nil {
		return 0, errors.Errorf("missing binary operator before token \"%s\"", t.Spelling())
	}
	return ret, nil
}
