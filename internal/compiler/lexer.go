package compiler

import (
	"strconv"
	"strings"
)

type tokenKind uint8

const (
	tEOF tokenKind = iota
	tNumber
	tIdent
	tOp
	tLParen
	tRParen
	tComma
	tQuestion
	tColon
	tAssign
)

type token struct {
	kind tokenKind
	text string
	num  float32
	pos  int
}

// operators, longest first
var opTokens = []string{"<=", ">=", "==", "!=", "*", "/", "%", "+", "-", "<", ">"}

var assignTokens = []string{"+=", "-=", "*=", "/=", "%="}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isNumChar(c byte) bool {
	return c == '.' || (c >= '0' && c <= '9')
}

// lex splits one statement into tokens. base is the statement's offset in the source.
func lex(src string, base int) ([]token, error) {
	var out []token
	i := 0
	for i < len(src) {
		c := src[i]
		pos := base + i
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue

		case isNumChar(c):
			j := i
			for j < len(src) && isNumChar(src[j]) {
				j++
			}
			text := src[i:j]
			v, err := strconv.ParseFloat(text, 32)
			if err != nil || strings.Count(text, ".") > 1 {
				return nil, errorf(pos, "bad number %q", text)
			}
			out = append(out, token{kind: tNumber, text: text, num: float32(v), pos: pos})
			i = j
			continue

		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			out = append(out, token{kind: tIdent, text: src[i:j], pos: pos})
			i = j
			continue
		}

		if t, ok := matchAny(src[i:], assignTokens); ok {
			out = append(out, token{kind: tAssign, text: t, pos: pos})
			i += len(t)
			continue
		}
		if t, ok := matchAny(src[i:], opTokens); ok {
			out = append(out, token{kind: tOp, text: t, pos: pos})
			i += len(t)
			continue
		}

		kind := tEOF
		switch c {
		case '(':
			kind = tLParen
		case ')':
			kind = tRParen
		case ',':
			kind = tComma
		case '?':
			kind = tQuestion
		case ':':
			kind = tColon
		case '=':
			kind = tAssign
		default:
			return nil, errorf(pos, "unexpected %q", c)
		}
		out = append(out, token{kind: kind, text: string(c), pos: pos})
		i++
	}
	return append(out, token{kind: tEOF, pos: base + len(src)}), nil
}

func matchAny(s string, set []string) (string, bool) {
	for _, t := range set {
		if strings.HasPrefix(s, t) {
			return t, true
		}
	}
	return "", false
}
