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

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenString
	TokenIdent
	TokenTrue
	TokenFalse
	TokenNull

	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenPower // **

	TokenLParen
	TokenRParen
	TokenComma
	TokenDot

	TokenEQ // ==
	TokenNE // !=
	TokenLT
	TokenGT
	TokenLE // <=
	TokenGE // >=

	TokenAnd
	TokenOr
	TokenNot
)

var tokenNames = map[TokenType]string{
	TokenEOF:     "end of input",
	TokenNumber:  "number",
	TokenString:  "string",
	TokenIdent:   "identifier",
	TokenTrue:    "true",
	TokenFalse:   "false",
	TokenNull:    "null",
	TokenPlus:    "+",
	TokenMinus:   "-",
	TokenStar:    "*",
	TokenSlash:   "/",
	TokenPercent: "%",
	TokenPower:   "**",
	TokenLParen:  "(",
	TokenRParen:  ")",
	TokenComma:   ",",
	TokenDot:     ".",
	TokenEQ:      "==",
	TokenNE:      "!=",
	TokenLT:      "<",
	TokenGT:      ">",
	TokenLE:      "<=",
	TokenGE:      ">=",
	TokenAnd:     "and",
	TokenOr:      "or",
	TokenNot:     "not",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

var keywords = map[string]TokenType{
	"and":   TokenAnd,
	"or":    TokenOr,
	"not":   TokenNot,
	"true":  TokenTrue,
	"false": TokenFalse,
	"null":  TokenNull,
}
