package reader

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/lexer"
)

// parseNumber turns a lexer-classified numeric literal (already stripped of
// everything but its own text) into the corresponding Datum, honoring the
// optional #b/#o/#d/#x radix prefix and #e/#i exactness prefix.
func parseNumber(tt lexer.TokenType, lit string) (ast.Datum, error) {
	radix := 10
	exactness := byte(0) // 0 unset, 'e' forced exact, 'i' forced inexact
	body := lit
	for len(body) >= 2 && body[0] == '#' {
		switch body[1] {
		case 'b', 'B':
			radix = 2
		case 'o', 'O':
			radix = 8
		case 'd', 'D':
			radix = 10
		case 'x', 'X':
			radix = 16
		case 'e', 'E':
			exactness = 'e'
		case 'i', 'I':
			exactness = 'i'
		default:
			return nil, errBadNumber(lit)
		}
		body = body[2:]
	}

	switch tt {
	case lexer.Integer:
		return parseIntegerBody(body, radix, exactness, lit)
	case lexer.Rational:
		return parseRationalBody(body, radix, exactness, lit)
	case lexer.Real:
		return parseRealBody(body, exactness, lit)
	case lexer.Complex:
		return parseComplexBody(body, radix, exactness, lit)
	default:
		return nil, errBadNumber(lit)
	}
}

func errBadNumber(lit string) error {
	return &ReadError{Kind: ErrKindInvalid, Message: "malformed numeric literal " + lit}
}

func parseIntegerBody(body string, radix int, exactness byte, orig string) (ast.Datum, error) {
	i := new(big.Int)
	if _, ok := i.SetString(body, radix); !ok {
		return nil, errBadNumber(orig)
	}
	if exactness == 'i' {
		f := new(big.Float).SetInt(i)
		v, _ := f.Float64()
		return ast.DReal{Value: v}, nil
	}
	return ast.DInt{Value: i, Exact: true}, nil
}

func parseRationalBody(body string, radix int, exactness byte, orig string) (ast.Datum, error) {
	parts := strings.SplitN(body, "/", 2)
	if len(parts) != 2 {
		return nil, errBadNumber(orig)
	}
	num := new(big.Int)
	den := new(big.Int)
	if _, ok := num.SetString(parts[0], radix); !ok {
		return nil, errBadNumber(orig)
	}
	if _, ok := den.SetString(parts[1], radix); !ok {
		return nil, errBadNumber(orig)
	}
	if den.Sign() == 0 {
		return nil, errBadNumber(orig)
	}
	rat := new(big.Rat).SetFrac(num, den)
	if exactness == 'i' {
		f, _ := rat.Float64()
		return ast.DReal{Value: f}, nil
	}
	if rat.IsInt() {
		return ast.DInt{Value: new(big.Int).Set(rat.Num()), Exact: true}, nil
	}
	return ast.DRat{Value: rat}, nil
}

// parseRealBody handles decimal-only real literals, including R7RS's
// special infinities/NaN spellings.
func parseRealBody(body string, exactness byte, orig string) (ast.Datum, error) {
	switch body {
	case "+inf.0":
		return realOrExact(math.Inf(1), exactness, orig)
	case "-inf.0":
		return realOrExact(math.Inf(-1), exactness, orig)
	case "+nan.0", "-nan.0":
		return ast.DReal{Value: math.NaN()}, nil
	}
	f, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return nil, errBadNumber(orig)
	}
	return realOrExact(f, exactness, orig)
}

func realOrExact(f float64, exactness byte, orig string) (ast.Datum, error) {
	if exactness != 'e' {
		return ast.DReal{Value: f}, nil
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, errBadNumber(orig)
	}
	rat := new(big.Rat).SetFloat64(f)
	if rat == nil {
		return nil, errBadNumber(orig)
	}
	if rat.IsInt() {
		return ast.DInt{Value: new(big.Int).Set(rat.Num()), Exact: true}, nil
	}
	return ast.DRat{Value: rat}, nil
}

// parseComplexBody handles `a+bi`, `a-bi`, `+bi`, `-bi`, `+i`, `-i` forms.
// R7RS complex syntax never nests a `/` rational or radix prefix inside the
// imaginary part differently from the real part, so both halves are parsed
// with the same radix/exactness that applied to the whole literal.
func parseComplexBody(body string, radix int, exactness byte, orig string) (ast.Datum, error) {
	if !strings.HasSuffix(body, "i") && !strings.HasSuffix(body, "I") {
		return nil, errBadNumber(orig)
	}
	mantissa := body[:len(body)-1]

	splitAt := -1
	for i := len(mantissa) - 1; i > 0; i-- {
		if (mantissa[i] == '+' || mantissa[i] == '-') && mantissa[i-1] != 'e' && mantissa[i-1] != 'E' {
			splitAt = i
			break
		}
	}

	var realPart, imagPart string
	if splitAt == -1 {
		realPart = "0"
		imagPart = mantissa
		if imagPart == "" || imagPart == "+" {
			imagPart = "1"
		} else if imagPart == "-" {
			imagPart = "-1"
		}
	} else {
		realPart = mantissa[:splitAt]
		imagPart = mantissa[splitAt:]
		if imagPart == "+" {
			imagPart = "1"
		} else if imagPart == "-" {
			imagPart = "-1"
		}
	}

	re, err := parseSignedReal(realPart, radix)
	if err != nil {
		return nil, errBadNumber(orig)
	}
	im, err := parseSignedReal(imagPart, radix)
	if err != nil {
		return nil, errBadNumber(orig)
	}
	_ = exactness // the complex tower is always represented inexactly
	return ast.DComplex{Real: re, Imag: im}, nil
}

func parseSignedReal(s string, radix int) (float64, error) {
	if radix != 10 {
		i := new(big.Int)
		if _, ok := i.SetString(s, radix); ok {
			f := new(big.Float).SetInt(i)
			v, _ := f.Float64()
			return v, nil
		}
		return 0, errBadNumber(s)
	}
	switch s {
	case "+inf.0":
		return math.Inf(1), nil
	case "-inf.0":
		return math.Inf(-1), nil
	case "+nan.0", "-nan.0":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
