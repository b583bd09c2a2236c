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

package columns

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tabula/core/values"
)

func TestDisplayValueResolutionOrder(t *testing.T) {
	row := NewRow(map[string]any{"price": 10, "qty": 3})

	renderer := CellRendererFunc(func(v values.Value, _ Row) string { return "<b>" + v.String() + "</b>" })
	formatter := ValueFormatterFunc(func(v values.Value, _ Row) string { return "$" + v.String() })
	getter := ValueGetterFunc(func(r Row) values.Value {
		p, _ := r.Get("price").AsNumber()
		q, _ := r.Get("qty").AsNumber()
		return values.Number(p * q)
	})

	tests := []struct {
		name string
		def  *ColumnDef
		want string
	}{
		{"raw", &ColumnDef{Field: "price"}, "10"},
		{"getter", &ColumnDef{Field: "price", ValueGetter: getter}, "30"},
		{"formatter beats getter", &ColumnDef{Field: "price", ValueGetter: getter, ValueFormatter: formatter}, "$10"},
		{"renderer beats all", &ColumnDef{Field: "price", ValueGetter: getter, ValueFormatter: formatter, CellRenderer: renderer}, "<b>10</b>"},
		{"missing field", &ColumnDef{Field: "nope"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.def.DisplayValue(row))
		})
	}
}

func TestRawValue(t *testing.T) {
	row := NewRow(map[string]any{"a": "x"})
	assert.Equal(t, values.Text("x"), (&ColumnDef{Field: "a"}).RawValue(row))

	getter := ValueGetterFunc(func(Row) values.Value { return values.Number(1) })
	assert.Equal(t, values.Number(1), (&ColumnDef{Field: "a", ValueGetter: getter}).RawValue(row))
}

func TestDefs(t *testing.T) {
	defs := Defs{
		{Field: "a", HeaderName: "Alpha"},
		{Field: "b"},
	}
	require.NoError(t, defs.Validate())
	assert.Equal(t, []string{"a", "b"}, defs.Fields())
	assert.Equal(t, "Alpha", defs.Find("a").DisplayName())
	assert.Equal(t, "b", defs.Find("b").DisplayName())
	assert.Nil(t, defs.Find("c"))
	assert.Len(t, defs.Index(), 2)
	assert.Equal(t, DefaultWidth, defs.Find("a").DefaultWidth())

	bad := Defs{{Field: "a"}, {Field: "a"}, {Field: ""}}
	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), `duplicate field "a"`))
	assert.True(t, strings.Contains(err.Error(), "empty field"))
}

func TestParseEnums(t *testing.T) {
	ft, err := ParseFilterType("Number")
	require.NoError(t, err)
	assert.Equal(t, FilterNumber, ft)
	_, err = ParseFilterType("bogus")
	assert.Error(t, err)

	p, err := ParsePinned("right")
	require.NoError(t, err)
	assert.Equal(t, PinRight, p)
	assert.Equal(t, "right", p.String())

	agg, err := ParseAggregationType("avg")
	require.NoError(t, err)
	assert.Equal(t, AggAvg, agg)
	assert.Equal(t, "avg", agg.String())
}
