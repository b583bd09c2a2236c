/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package expr

import (
	"fmt"
	"strconv"

	"github.com/google/tabula/core/values"
)

// Parser parses tokens into an AST
type Parser struct {
	lexer *Lexer
	cur   Token
}

// NewParser creates a new parser
func NewParser(input string) *Parser {
	return &Parser{lexer: NewLexer(input)}
}

func (p *Parser) advance() error {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) expect(tt TokenType) error {
	if p.cur.Type != tt {
		return fmt.Errorf("expected %s at position %d, got %s", tt, p.cur.Pos, p.cur.Type)
	}
	return p.advance()
}

// Parse parses the whole input as one expression.
func (p *Parser) Parse() (Node, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected %s at position %d", p.cur.Type, p.cur.Pos)
	}
	return n, nil
}

// Precedence, lowest first:
//
//	or
//	and
//	not
//	== != < > <= >=
//	+ -
//	* / %
//	unary -
//	** (right associative)
//	calls, methods

// binaryLevel parses a left-associative chain of ops over next.
func (p *Parser) binaryLevel(next func() (Node, error), ops ...TokenType) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for isOneOf(p.cur.Type, ops) {
		op := p.cur.Type
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func isOneOf(tt TokenType, ops []TokenType) bool {
	for _, op := range ops {
		if tt == op {
			return true
		}
	}
	return false
}

func (p *Parser) parseOr() (Node, error) {
	return p.binaryLevel(p.parseAnd, TokenOr)
}

func (p *Parser) parseAnd() (Node, error) {
	return p.binaryLevel(p.parseNot, TokenAnd)
}

func (p *Parser) parseNot() (Node, error) {
	if p.cur.Type != TokenNot {
		return p.parseComparison()
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &UnaryOp{Op: TokenNot, Expr: operand}, nil
}

func (p *Parser) parseComparison() (Node, error) {
	return p.binaryLevel(p.parseAdditive, TokenEQ, TokenNE, TokenLT, TokenGT, TokenLE, TokenGE)
}

func (p *Parser) parseAdditive() (Node, error) {
	return p.binaryLevel(p.parseMultiplicative, TokenPlus, TokenMinus)
}

func (p *Parser) parseMultiplicative() (Node, error) {
	return p.binaryLevel(p.parseUnary, TokenStar, TokenSlash, TokenPercent)
}

func (p *Parser) parseUnary() (Node, error) {
	if p.cur.Type != TokenMinus && p.cur.Type != TokenPlus {
		return p.parsePower()
	}
	op := p.cur.Type
	if err := p.advance(); err != nil {
		return nil, err
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if op == TokenPlus {
		return operand, nil
	}
	return &UnaryOp{Op: TokenMinus, Expr: operand}, nil
}

// parsePower binds tighter than unary minus on its left, so -2 ** 2 is -4,
// and recurses through unary on its right, so 2 ** -1 is 0.5.
func (p *Parser) parsePower() (Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TokenPower {
		return base, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &BinaryOp{Op: TokenPower, Left: base, Right: exp}, nil
}

func (p *Parser) parsePostfix() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type != TokenIdent {
			return nil, fmt.Errorf("expected method name at position %d", p.cur.Pos)
		}
		name, pos := p.cur.Value, p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		n = &CallExpr{Func: name, Recv: n, Args: args, Pos: pos}
	}
	return n, nil
}

func (p *Parser) parseArgs() ([]Node, error) {
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var args []Node
	for p.cur.Type != TokenRParen {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur.Type != TokenComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return args, p.expect(TokenRParen)
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.cur
	switch tok.Type {
	case TokenNumber:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", tok.Value, tok.Pos)
		}
		return &Literal{Value: values.Number(f)}, p.advance()
	case TokenString:
		return &Literal{Value: values.Text(tok.Value)}, p.advance()
	case TokenTrue, TokenFalse:
		return &Literal{Value: values.Bool(tok.Type == TokenTrue)}, p.advance()
	case TokenNull:
		return &Literal{Value: values.Null()}, p.advance()
	case TokenIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type != TokenLParen {
			return &Ident{Name: tok.Value}, nil
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &CallExpr{Func: tok.Value, Args: args, Pos: tok.Pos}, nil
	case TokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		return n, p.expect(TokenRParen)
	}
	return nil, fmt.Errorf("unexpected %s at position %d", tok.Type, tok.Pos)
}
