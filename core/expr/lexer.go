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
	"strings"
)

// Lexer tokenizes an expression string
type Lexer struct {
	input string
	pos   int
	ch    byte
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	if len(input) > 0 {
		l.ch = input[0]
	}
	return l
}

func (l *Lexer) advance() {
	l.pos++
	if l.pos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.pos]
	}
}

func (l *Lexer) peek() byte {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

var singleCharTokens = map[byte]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'/': TokenSlash,
	'%': TokenPercent,
	'(': TokenLParen,
	')': TokenRParen,
	',': TokenComma,
	'.': TokenDot,
}

// twoCharTokens maps an operator's first byte to the token it forms alone
// and the token it forms when followed by second.
var twoCharTokens = map[byte]struct {
	alone, paired TokenType
	second        byte
}{
	'*': {TokenStar, TokenPower, '*'},
	'<': {TokenLT, TokenLE, '='},
	'>': {TokenGT, TokenGE, '='},
	'=': {TokenEOF, TokenEQ, '='},
	'!': {TokenEOF, TokenNE, '='},
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() (Token, error) {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.advance()
	}
	start := l.pos

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Pos: start}, nil
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peek())):
		return l.readNumber(start), nil
	case l.ch == '"' || l.ch == '\'':
		return l.readString(start)
	case isIdentStart(l.ch):
		return l.readIdent(start), nil
	}

	if tt, ok := singleCharTokens[l.ch]; ok {
		l.advance()
		return Token{Type: tt, Value: l.input[start:l.pos], Pos: start}, nil
	}
	if op, ok := twoCharTokens[l.ch]; ok {
		first := l.ch
		l.advance()
		if l.ch == op.second {
			l.advance()
			return Token{Type: op.paired, Value: l.input[start:l.pos], Pos: start}, nil
		}
		if op.alone == TokenEOF {
			return Token{}, fmt.Errorf("unexpected '%c' at position %d, did you mean '%c%c'?", first, start, first, op.second)
		}
		return Token{Type: op.alone, Value: l.input[start:l.pos], Pos: start}, nil
	}
	return Token{}, fmt.Errorf("unexpected character '%c' at position %d", l.ch, start)
}

// readNumber reads digits with at most one decimal point and an optional
// exponent.
func (l *Lexer) readNumber(start int) Token {
	seenDot := false
	for isDigit(l.ch) || (l.ch == '.' && !seenDot) {
		if l.ch == '.' {
			seenDot = true
		}
		l.advance()
	}
	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peek()) || l.peek() == '-' || l.peek() == '+') {
		l.advance()
		if l.ch == '-' || l.ch == '+' {
			l.advance()
		}
		for isDigit(l.ch) {
			l.advance()
		}
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) readString(start int) (Token, error) {
	quote := l.ch
	l.advance()
	var sb strings.Builder
	for l.ch != 0 && l.ch != quote {
		if l.ch == '\\' {
			l.advance()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 0:
				return Token{}, fmt.Errorf("unterminated string starting at position %d", start)
			default:
				sb.WriteByte(l.ch)
			}
		} else {
			sb.WriteByte(l.ch)
		}
		l.advance()
	}
	if l.ch != quote {
		return Token{}, fmt.Errorf("unterminated string starting at position %d", start)
	}
	l.advance()
	return Token{Type: TokenString, Value: sb.String(), Pos: start}, nil
}

func (l *Lexer) readIdent(start int) Token {
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.advance()
	}
	word := l.input[start:l.pos]
	if tt, ok := keywords[word]; ok {
		return Token{Type: tt, Value: word, Pos: start}
	}
	return Token{Type: TokenIdent, Value: word, Pos: start}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isIdentStart accepts ASCII letters, underscore and any byte of a
// multi-byte UTF-8 sequence, so non-ASCII field names lex as identifiers.
func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}
