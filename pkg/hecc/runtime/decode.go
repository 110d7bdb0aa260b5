// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"encoding/json"
	"math"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/util/matrix"
)

// Decode converts a JSON value into a (public) runtime value of the given
// type.  Scalars are JSON numbers, booleans or strings.  Vectors are arrays of
// scalars, whilst matrices are arrays of rows.  Encryption of secret arguments
// happens only when they are passed to a function.
func Decode(datatype ast.Datatype, data json.RawMessage) (Value, error) {
	var raw any
	//
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ast.NewError(ast.TypeMismatch, ast.NIL, "invalid input (%s)", err)
	} else if !datatype.IsMatrix() {
		c, err := decodeConstant(datatype.Kind, raw)
		if err != nil {
			return nil, err
		}
		//
		return &Plain{c}, nil
	}
	//
	rows, err := decodeRows(raw)
	if err != nil {
		return nil, err
	}
	//
	m, err := matrix.FromRows(rows)
	if err != nil {
		return nil, ast.NewError(ast.TypeMismatch, ast.NIL, "%s", err)
	} else if !dimensionMatches(datatype.Rows, m.Rows()) || !dimensionMatches(datatype.Cols, m.Cols()) {
		return nil, ast.NewError(ast.TypeMismatch, ast.NIL, "expected %s, found %dx%d matrix", datatype,
			m.Rows(), m.Cols())
	}
	//
	elements, err := matrix.MapErr(m, func(v any) (ast.Constant, error) {
		return decodeConstant(datatype.Kind, v)
	})
	//
	if err != nil {
		return nil, err
	}
	//
	return &PlainMatrix{elements}, nil
}

// A flat array is a vector, whilst an array of arrays gives the rows.
func decodeRows(raw any) ([][]any, error) {
	elements, ok := raw.([]any)
	if !ok {
		return nil, ast.NewError(ast.TypeMismatch, ast.NIL, "expected array, found %v", raw)
	} else if len(elements) == 0 {
		return nil, ast.NewError(ast.TypeMismatch, ast.NIL, "empty matrix")
	}
	//
	if _, nested := elements[0].([]any); !nested {
		return [][]any{elements}, nil
	}
	//
	rows := make([][]any, len(elements))
	//
	for i, e := range elements {
		if rows[i], ok = e.([]any); !ok {
			return nil, ast.NewError(ast.TypeMismatch, ast.NIL, "expected row, found %v", e)
		}
	}
	//
	return rows, nil
}

func decodeConstant(kind ast.Kind, raw any) (ast.Constant, error) {
	switch v := raw.(type) {
	case bool:
		if kind == ast.BOOL {
			return ast.Bool(v), nil
		}
	case float64:
		switch kind {
		case ast.INT:
			if v == math.Trunc(v) {
				return ast.Int(int64(v)), nil
			}
		case ast.FLOAT:
			return ast.Float(v), nil
		case ast.BOOL:
			if v == 0 || v == 1 {
				return ast.Bool(v == 1), nil
			}
		}
	case string:
		if kind == ast.STRING {
			return ast.String(v), nil
		}
	}
	//
	return ast.Constant{}, ast.NewError(ast.TypeMismatch, ast.NIL, "expected %s, found %v", kind, raw)
}

func dimensionMatches(declared uint, actual uint) bool {
	return declared == matrix.Unknown || declared == actual
}
