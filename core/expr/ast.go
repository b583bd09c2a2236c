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

import "github.com/google/tabula/core/values"

// Node is the interface for all AST nodes
type Node interface {
	node()
}

// Literal is a constant: number, string, boolean or null.
type Literal struct {
	Value values.Value
}

// Ident is a field reference.
type Ident struct {
	Name string
}

// BinaryOp represents a binary operation
type BinaryOp struct {
	Op    TokenType
	Left  Node
	Right Node
}

// UnaryOp represents a unary operation
type UnaryOp struct {
	Op   TokenType
	Expr Node
}

// CallExpr is a function call, or a method call when Recv is set:
// name.upper() is upper(name).
type CallExpr struct {
	Func string
	Recv Node
	Args []Node
	Pos  int
}

func (*Literal) node()  {}
func (*Ident) node()    {}
func (*BinaryOp) node() {}
func (*UnaryOp) node()  {}
func (*CallExpr) node() {}
