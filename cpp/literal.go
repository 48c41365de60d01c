package cpp

import (
	"math"
	"math/bits"
	"strconv"
	"strings"
	"unicode/utf8"

	"modernc.org/mathutil"
)

// NumberLiteral is the value of a numeric constant: IntLiteral or FloatLiteral.
type NumberLiteral interface {
	isNumberLiteral()
}

type IntLiteral struct {
	Val      uint64
	Unsigned bool
	Long     bool
	LongLong bool
}

type FloatLiteral struct {
	Val        float64
	Float      bool
	LongDouble bool
}

func (IntLiteral) isNumberLiteral()   {}
func (FloatLiteral) isNumberLiteral() {}

// Significant hex digits accumulated for a hex float, the rest only feed a sticky bit.
const maxHexFloatDigits = 16

// ParseNumber works out the value of a NUMBER token. Problems are recorded
// in diags and a best effort value is always returned.
func ParseNumber(t *Token, diags *Diagnostics) NumberLiteral {
	s := t.Val
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		body := s[2:]
		if strings.ContainsAny(body, ".pP") {
			return parseHexFloat(t, body, diags)
		}
		return parseHexInt(t, body, diags)
	}
	if strings.ContainsAny(s, ".eE") {
		return parseDecimalFloat(t, diags)
	}
	if s[0] == '0' {
		return parseOctalInt(t, diags)
	}
	return parseDecimalInt(t, diags)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) uint64 {
	switch {
	case c >= '0' && c <= '9':
		return uint64(c - '0')
	case c >= 'a' && c <= 'f':
		return uint64(c-'a') + 10
	default:
		return uint64(c-'A') + 10
	}
}

func parseHexInt(t *Token, body string, diags *Diagnostics) NumberLiteral {
	i := 0
	for i < len(body) && isHexDigit(body[i]) {
		i++
	}
	digits := body[:i]
	if digits == "" {
		diags.Errorf(t.Pos, "hexadecimal constant %s has no digits", t.Val)
	}
	digits = strings.TrimLeft(digits, "0")
	if len(digits) > 16 {
		diags.Warnf(t.Pos, "integer constant %s is too large for its type", t.Val)
		digits = digits[len(digits)-16:]
	}
	var v uint64
	for j := 0; j < len(digits); j++ {
		v = v<<4 | hexVal(digits[j])
	}
	ret := IntLiteral{Val: v}
	parseIntSuffix(t, body[i:], &ret, diags)
	return ret
}

func parseOctalInt(t *Token, diags *Diagnostics) NumberLiteral {
	s := t.Val
	var v uint64
	overflow := false
	i := 0
	for ; i < len(s) && isNumeric(rune(s[i])); i++ {
		if s[i] > '7' {
			diags.Errorf(t.Pos, "invalid digit \"%c\" in octal constant", s[i])
			continue
		}
		if mathutil.BitLenUint64(v) > 61 {
			if !overflow {
				diags.Warnf(t.Pos, "integer constant %s is too large for its type", s)
				overflow = true
			}
			continue
		}
		v = v<<3 | uint64(s[i]-'0')
	}
	ret := IntLiteral{Val: v}
	parseIntSuffix(t, s[i:], &ret, diags)
	return ret
}

func parseDecimalInt(t *Token, diags *Diagnostics) NumberLiteral {
	s := t.Val
	var v uint64
	overflow := false
	i := 0
	for ; i < len(s) && isNumeric(rune(s[i])); i++ {
		if overflow {
			continue
		}
		hi, lo := bits.Mul64(v, 10)
		sum, carry := bits.Add64(lo, uint64(s[i]-'0'), 0)
		if hi != 0 || carry != 0 {
			diags.Warnf(t.Pos, "integer constant %s is too large for its type", s)
			overflow = true
			continue
		}
		v = sum
	}
	ret := IntLiteral{Val: v}
	parseIntSuffix(t, s[i:], &ret, diags)
	return ret
}

func parseIntSuffix(t *Token, suffix string, lit *IntLiteral, diags *Diagnostics) {
	switch strings.ToLower(suffix) {
	case "":
	case "u":
		lit.Unsigned = true
	case "l":
		lit.Long = true
	case "ul", "lu":
		lit.Unsigned = true
		lit.Long = true
	case "ll":
		lit.LongLong = true
	case "ull", "llu":
		lit.Unsigned = true
		lit.LongLong = true
	default:
		diags.Errorf(t.Pos, "invalid suffix \"%s\" on integer constant", suffix)
	}
}

func parseFloatSuffix(t *Token, suffix string, lit *FloatLiteral, diags *Diagnostics) {
	switch strings.ToLower(suffix) {
	case "":
	case "f":
		lit.Float = true
	case "l":
		lit.LongDouble = true
	default:
		diags.Errorf(t.Pos, "invalid suffix \"%s\" on floating constant", suffix)
	}
}

// scanExponent reads [+-]digits at the start of s.
func scanExponent(s string) (exp string, rest string) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	j := i
	for j < len(s) && isNumeric(rune(s[j])) {
		j++
	}
	if j == i {
		return "", s
	}
	return s[:j], s[j:]
}

// parseDecimalFloat rebuilds the constant as digits.digits e exp and lets
// strconv round it, which gives IEEE round to nearest even.
func parseDecimalFloat(t *Token, diags *Diagnostics) NumberLiteral {
	s := t.Val
	i := 0
	for i < len(s) && isNumeric(rune(s[i])) {
		i++
	}
	intPart := s[:i]
	fracPart := ""
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isNumeric(rune(s[j])) {
			j++
		}
		fracPart = s[i+1 : j]
		i = j
	}
	exp := "0"
	rest := s[i:]
	if rest != "" && (rest[0] == 'e' || rest[0] == 'E') {
		var e string
		e, rest = scanExponent(rest[1:])
		if e == "" {
			diags.Errorf(t.Pos, "exponent has no digits")
		} else {
			exp = e
		}
	}
	var ret FloatLiteral
	parseFloatSuffix(t, rest, &ret, diags)
	if intPart == "" {
		intPart = "0"
	}
	if fracPart == "" {
		fracPart = "0"
	}
	norm := intPart + "." + fracPart + "e" + exp
	bitSize := 64
	if ret.Float {
		bitSize = 32
	}
	v, err := strconv.ParseFloat(norm, bitSize)
	if err != nil {
		diags.Warnf(t.Pos, "floating constant %s exceeds range of type", s)
	}
	ret.Val = v
	return ret
}

// parseHexFloat accumulates up to maxHexFloatDigits significant digits
// exactly. Any nonzero digit beyond that sets the low bit so the single
// rounding done by the integer to float conversion still rounds correctly.
func parseHexFloat(t *Token, body string, diags *Diagnostics) NumberLiteral {
	var mant uint64
	exp := 0
	ndigits := 0
	sticky := false
	seenDigit := false
	frac := false
	i := 0
	for ; i < len(body); i++ {
		c := body[i]
		if c == '.' {
			if frac {
				break
			}
			frac = true
			continue
		}
		if !isHexDigit(c) {
			break
		}
		seenDigit = true
		d := hexVal(c)
		switch {
		case mant == 0 && d == 0:
			if frac {
				exp -= 4
			}
		case ndigits < maxHexFloatDigits:
			mant = mant<<4 | d
			ndigits++
			if frac {
				exp -= 4
			}
		default:
			if d != 0 {
				sticky = true
			}
			if !frac {
				exp += 4
			}
		}
	}
	if !seenDigit {
		diags.Errorf(t.Pos, "hexadecimal floating constant %s has no digits", t.Val)
	}
	rest := body[i:]
	if rest != "" && (rest[0] == 'p' || rest[0] == 'P') {
		e, r := scanExponent(rest[1:])
		if e == "" {
			diags.Errorf(t.Pos, "exponent has no digits")
		} else {
			n, err := strconv.Atoi(e)
			if err != nil {
				// Saturate, the result is zero or infinity either way.
				n = math.MaxInt32
				if e[0] == '-' {
					n = math.MinInt32
				}
			}
			exp += n
		}
		rest = r
	} else {
		diags.Errorf(t.Pos, "hexadecimal floating constant requires an exponent")
	}
	var ret FloatLiteral
	parseFloatSuffix(t, rest, &ret, diags)
	if sticky {
		mant |= 1
	}
	if ret.Float {
		ret.Val = float64(float32(math.Ldexp(float64(float32(mant)), exp)))
	} else {
		ret.Val = math.Ldexp(float64(mant), exp)
	}
	if math.IsInf(ret.Val, 0) {
		diags.Warnf(t.Pos, "floating constant %s exceeds range of type", t.Val)
	}
	return ret
}

var simpleEscapes = map[byte]uint64{
	'a':  7,
	'b':  8,
	'e':  27,
	'f':  12,
	'n':  10,
	'r':  13,
	't':  9,
	'v':  11,
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'?':  '?',
}

// CharToInt computes the value of a character constant whose type is size
// bytes wide. Characters are packed big endian, 8 bits each or 16 for wide
// constants.
func CharToInt(t *Token, size int, diags *Diagnostics) IntLiteral {
	width := 8
	if t.Wide {
		width = 16
	}
	if size <= 0 {
		size = 4
	}
	s := t.Val
	if s == "" {
		diags.Errorf(t.Pos, "empty character constant")
		return IntLiteral{}
	}
	var result uint64
	count := 0
	overflow := false
	for i := 0; i < len(s); {
		var v uint64
		if s[i] == '\\' && i+1 < len(s) {
			v, i = decodeEscape(t, s, i+1, width, diags)
		} else if t.Wide {
			r, n := utf8.DecodeRuneInString(s[i:])
			v = uint64(r)
			i += n
		} else {
			v = uint64(s[i])
			i++
		}
		if mathutil.BitLenUint64(v) > width {
			diags.Warnf(t.Pos, "character constant out of range")
			v &= 1<<uint(width) - 1
		}
		if (count+1)*width > size*8 {
			if !overflow {
				diags.Warnf(t.Pos, "character constant too long for its type")
				overflow = true
			}
			count++
			continue
		}
		result = result<<uint(width) | v
		count++
	}
	if count > 1 {
		diags.Warnf(t.Pos, "multi-character character constant")
	}
	return IntLiteral{Val: result}
}

// decodeEscape decodes the escape whose letter is at s[i] and returns the
// value and the index after it.
func decodeEscape(t *Token, s string, i int, width int, diags *Diagnostics) (uint64, int) {
	c := s[i]
	if v, ok := simpleEscapes[c]; ok {
		return v, i + 1
	}
	switch {
	case c >= '0' && c <= '7':
		var v uint64
		j := i
		for ; j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7'; j++ {
			v = v<<3 | uint64(s[j]-'0')
		}
		if mathutil.BitLenUint64(v) > width {
			diags.Warnf(t.Pos, "octal escape sequence out of range")
			v &= 1<<uint(width) - 1
		}
		return v, j
	case c == 'x':
		var v uint64
		j := i + 1
		big := false
		for ; j < len(s) && isHexDigit(s[j]); j++ {
			if mathutil.BitLenUint64(v) > 60 {
				big = true
			}
			v = v<<4 | hexVal(s[j])
		}
		if j == i+1 {
			diags.Errorf(t.Pos, "\\x used with no following hex digits")
			return 0, j
		}
		if big || mathutil.BitLenUint64(v) > width {
			diags.Warnf(t.Pos, "hex escape sequence out of range")
			v &= 1<<uint(width) - 1
		}
		return v, j
	case c == 'u' || c == 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		j := i + 1
		var v uint64
		for ; j < len(s) && j < i+1+n && isHexDigit(s[j]); j++ {
			v = v<<4 | hexVal(s[j])
		}
		if j != i+1+n {
			diags.Errorf(t.Pos, "incomplete universal character name \\%s", s[i:j])
		}
		return v, j
	}
	diags.Warnf(t.Pos, "unknown escape sequence '\\%c'", c)
	return uint64(c), i + 1
}
