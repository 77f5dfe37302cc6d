package main

// Recursive-descent parser for the Franz language.
//
// Grammar:
//
//	program    := statement*
//	statement  := IDENT '=' expr | '<-' expr | expr
//	expr       := INT | FLOAT | STRING | IDENT | application | function | list
//	application := '(' expr* ')'
//	function   := '{' IDENT* '->' statement* '}'
//	list       := '[' expr (',' expr)* ']'
//
// The parser produces the tagged expression tree the code generator consumes:
// a program is one OpStatement node whose children are the top-level
// statements; function bodies wrap each non-return statement in OpStatement
// so parameters (leading OpIdentifier children) stay distinguishable from
// body expressions.

type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a whole program.
func Parse(source string) (*Node, error) {
	tokens, err := NewLexer(source).Lex()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).ParseProgram()
}

func (p *Parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Type: TOKEN_EOF}
}

func (p *Parser) peek() Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return Token{Type: TOKEN_EOF}
}

func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return Token{}, errorf(tok.Line, "expected %s, got %s", tt, tok.Type)
	}
	return p.advance(), nil
}

// ParseProgram parses statements until EOF and returns the root OpStatement
// node.
func (p *Parser) ParseProgram() (*Node, error) {
	root := NewNode(OpStatement, "", 1)
	for p.current().Type != TOKEN_EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		root.AddChild(stmt)
	}
	return root, nil
}

// parseStatement parses one statement: an assignment, a return, or a bare
// expression.
func (p *Parser) parseStatement() (*Node, error) {
	tok := p.current()

	if tok.Type == TOKEN_RETURN {
		p.advance()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ret := NewNode(OpReturn, "", tok.Line)
		ret.AddChild(value)
		return ret, nil
	}

	if tok.Type == TOKEN_IDENT && p.peek().Type == TOKEN_EQUALS {
		name := p.advance()
		p.advance() // '='
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		assign := NewNode(OpAssignment, "", name.Line)
		assign.AddChild(NewNode(OpIdentifier, name.Value, name.Line))
		assign.AddChild(value)
		return assign, nil
	}

	return p.parseExpr()
}

func (p *Parser) parseExpr() (*Node, error) {
	tok := p.current()

	switch tok.Type {
	case TOKEN_INT:
		p.advance()
		return NewNode(OpInt, tok.Value, tok.Line), nil

	case TOKEN_FLOAT:
		p.advance()
		return NewNode(OpFloat, tok.Value, tok.Line), nil

	case TOKEN_STRING:
		p.advance()
		return NewNode(OpString, tok.Value, tok.Line), nil

	case TOKEN_IDENT:
		p.advance()
		return NewNode(OpIdentifier, tok.Value, tok.Line), nil

	case TOKEN_APPLY_OPEN:
		return p.parseApplication()

	case TOKEN_FUNC_OPEN:
		return p.parseFunction()

	case TOKEN_LBRACKET:
		return p.parseList()

	default:
		return nil, errorf(tok.Line, "unexpected %s", tok.Type)
	}
}

// parseApplication parses '(' expr* ')'.
func (p *Parser) parseApplication() (*Node, error) {
	open, err := p.expect(TOKEN_APPLY_OPEN)
	if err != nil {
		return nil, err
	}
	app := NewNode(OpApplication, "", open.Line)
	for p.current().Type != TOKEN_APPLY_CLOSE {
		if p.current().Type == TOKEN_EOF {
			return nil, errorf(open.Line, "unexpected end of file before ')'")
		}
		child, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		app.AddChild(child)
	}
	p.advance() // ')'
	if len(app.Children) == 0 {
		return nil, errorf(open.Line, "empty application")
	}
	return app, nil
}

// parseFunction parses '{' params '->' body '}'. Parameters become leading
// OpIdentifier children; body statements follow, each wrapped in OpStatement
// unless it is a return.
func (p *Parser) parseFunction() (*Node, error) {
	open, err := p.expect(TOKEN_FUNC_OPEN)
	if err != nil {
		return nil, err
	}
	fn := NewNode(OpFunction, "", open.Line)

	for p.current().Type == TOKEN_IDENT {
		param := p.advance()
		fn.AddChild(NewNode(OpIdentifier, param.Value, param.Line))
	}
	if _, err := p.expect(TOKEN_ARROW); err != nil {
		return nil, err
	}

	for p.current().Type != TOKEN_FUNC_CLOSE {
		if p.current().Type == TOKEN_EOF {
			return nil, errorf(open.Line, "unexpected end of file before '}'")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt.Op == OpReturn {
			fn.AddChild(stmt)
		} else {
			wrapper := NewNode(OpStatement, "", stmt.Line)
			wrapper.AddChild(stmt)
			fn.AddChild(wrapper)
		}
	}
	p.advance() // '}'

	if len(fn.Body()) == 0 {
		return nil, errorf(open.Line, "function body is empty")
	}
	return fn, nil
}

// parseList parses '[' expr (',' expr)* ']'.
func (p *Parser) parseList() (*Node, error) {
	open, err := p.expect(TOKEN_LBRACKET)
	if err != nil {
		return nil, err
	}
	list := NewNode(OpList, "", open.Line)

	if p.current().Type == TOKEN_RBRACKET {
		p.advance()
		return list, nil
	}

	for {
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list.AddChild(elem)

		tok := p.current()
		if tok.Type == TOKEN_COMMA {
			p.advance()
			continue
		}
		if tok.Type == TOKEN_RBRACKET {
			p.advance()
			return list, nil
		}
		return nil, errorf(tok.Line, "expected ',' or ']' in list, got %s", tok.Type)
	}
}
