package main

import (
	"strings"
	"unicode"
)

// Token types for the Franz language
type TokenType int

const (
	TOKEN_EOF TokenType = iota
	TOKEN_IDENT
	TOKEN_INT
	TOKEN_FLOAT
	TOKEN_STRING
	TOKEN_APPLY_OPEN  // (
	TOKEN_APPLY_CLOSE // )
	TOKEN_FUNC_OPEN   // {
	TOKEN_FUNC_CLOSE  // }
	TOKEN_LBRACKET    // [
	TOKEN_RBRACKET    // ]
	TOKEN_COMMA       // ,
	TOKEN_EQUALS      // =
	TOKEN_ARROW       // ->
	TOKEN_RETURN      // <-
)

// String returns the token type name for syntax error messages.
func (t TokenType) String() string {
	switch t {
	case TOKEN_EOF:
		return "end of file"
	case TOKEN_IDENT:
		return "identifier"
	case TOKEN_INT:
		return "integer"
	case TOKEN_FLOAT:
		return "float"
	case TOKEN_STRING:
		return "string"
	case TOKEN_APPLY_OPEN:
		return "'('"
	case TOKEN_APPLY_CLOSE:
		return "')'"
	case TOKEN_FUNC_OPEN:
		return "'{'"
	case TOKEN_FUNC_CLOSE:
		return "'}'"
	case TOKEN_LBRACKET:
		return "'['"
	case TOKEN_RBRACKET:
		return "']'"
	case TOKEN_COMMA:
		return "','"
	case TOKEN_EQUALS:
		return "'='"
	case TOKEN_ARROW:
		return "'->'"
	case TOKEN_RETURN:
		return "'<-'"
	default:
		return "unknown"
	}
}

type Token struct {
	Type  TokenType
	Value string
	Line  int
}

// processEscapeSequences converts escape sequences in a string to their actual characters
func processEscapeSequences(s string) string {
	var result strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				result.WriteByte('\n')
			case 't':
				result.WriteByte('\t')
			case 'r':
				result.WriteByte('\r')
			case '\\':
				result.WriteByte('\\')
			case '"':
				result.WriteByte('"')
			default:
				result.WriteByte(s[i])
				result.WriteByte(s[i+1])
			}
			i++ // Skip the escaped character
		} else {
			result.WriteByte(s[i])
		}
	}
	return result.String()
}

// isIdentChar reports whether ch can appear inside an identifier. Franz
// identifiers allow a few punctuation characters ('!' for set!, '-', '?').
func isIdentChar(ch byte) bool {
	if unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch)) {
		return true
	}
	return ch == '_' || ch == '!' || ch == '?' || ch == '-'
}

// Lexer for the Franz language
type Lexer struct {
	input string
	pos   int
	line  int
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input, pos: 0, line: 1}
}

// Lex tokenizes the whole input. Syntax errors are token-level only
// (unterminated strings); structural errors are left to the parser.
func (l *Lexer) Lex() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TOKEN_EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) NextToken() (Token, error) {
	// Skip whitespace, counting lines
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\n' {
			l.line++
			l.pos++
		} else if ch == ' ' || ch == '\t' || ch == '\r' {
			l.pos++
		} else {
			break
		}
	}

	// Skip comments (// to end of line)
	if l.pos+1 < len(l.input) && l.input[l.pos] == '/' && l.input[l.pos+1] == '/' {
		for l.pos < len(l.input) && l.input[l.pos] != '\n' {
			l.pos++
		}
		return l.NextToken()
	}

	if l.pos >= len(l.input) {
		return Token{Type: TOKEN_EOF, Line: l.line}, nil
	}

	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		return Token{Type: TOKEN_APPLY_OPEN, Line: l.line}, nil
	case ')':
		l.pos++
		return Token{Type: TOKEN_APPLY_CLOSE, Line: l.line}, nil
	case '{':
		l.pos++
		return Token{Type: TOKEN_FUNC_OPEN, Line: l.line}, nil
	case '}':
		l.pos++
		return Token{Type: TOKEN_FUNC_CLOSE, Line: l.line}, nil
	case '[':
		l.pos++
		return Token{Type: TOKEN_LBRACKET, Line: l.line}, nil
	case ']':
		l.pos++
		return Token{Type: TOKEN_RBRACKET, Line: l.line}, nil
	case ',':
		l.pos++
		return Token{Type: TOKEN_COMMA, Line: l.line}, nil
	case '=':
		l.pos++
		return Token{Type: TOKEN_EQUALS, Line: l.line}, nil
	}

	// Arrow '->' (function body separator)
	if ch == '-' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '>' {
		l.pos += 2
		return Token{Type: TOKEN_ARROW, Line: l.line}, nil
	}

	// Return marker '<-'
	if ch == '<' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '-' {
		l.pos += 2
		return Token{Type: TOKEN_RETURN, Line: l.line}, nil
	}

	// String literal
	if ch == '"' {
		l.pos++
		start := l.pos
		for l.pos < len(l.input) && l.input[l.pos] != '"' {
			if l.input[l.pos] == '\n' {
				return Token{}, errorf(l.line, "unexpected newline before string closed")
			}
			if l.input[l.pos] == '\\' && l.pos+1 < len(l.input) {
				l.pos += 2
			} else {
				l.pos++
			}
		}
		if l.pos >= len(l.input) {
			return Token{}, errorf(l.line, "unexpected end of file before string closed")
		}
		value := l.input[start:l.pos]
		l.pos++ // skip closing "
		return Token{Type: TOKEN_STRING, Value: processEscapeSequences(value), Line: l.line}, nil
	}

	// Number: integer or float, with optional leading minus
	if ch >= '0' && ch <= '9' || (ch == '-' && l.pos+1 < len(l.input) && l.input[l.pos+1] >= '0' && l.input[l.pos+1] <= '9') {
		start := l.pos
		if ch == '-' {
			l.pos++
		}
		isFloat := false
		for l.pos < len(l.input) {
			c := l.input[l.pos]
			if c >= '0' && c <= '9' {
				l.pos++
			} else if c == '.' && !isFloat && l.pos+1 < len(l.input) && l.input[l.pos+1] >= '0' && l.input[l.pos+1] <= '9' {
				isFloat = true
				l.pos++
			} else {
				break
			}
		}
		value := l.input[start:l.pos]
		if isFloat {
			return Token{Type: TOKEN_FLOAT, Value: value, Line: l.line}, nil
		}
		return Token{Type: TOKEN_INT, Value: value, Line: l.line}, nil
	}

	// Identifier
	if unicode.IsLetter(rune(ch)) || ch == '_' {
		start := l.pos
		for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
			// '-' ends the identifier when it starts an arrow, as in x->0
			if l.input[l.pos] == '-' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '>' {
				break
			}
			l.pos++
		}
		return Token{Type: TOKEN_IDENT, Value: l.input[start:l.pos], Line: l.line}, nil
	}

	return Token{}, errorf(l.line, "unexpected character %q", string(ch))
}
