// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package jsonutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LenientSuite struct {
	suite.Suite
}

func (s *LenientSuite) TestTryDecodeKeysAll() {
	obj := map[string]any{
		"a": `{"x":1}`,
		"b": "not json",
	}
	out := TryDecodeKeys(obj)
	s.Equal(map[string]any{
		"a": map[string]any{"x": 1.0},
		"b": "not json",
	}, out)
	// 原地修改
	s.Equal(map[string]any{"x": 1.0}, obj["a"])
}

func (s *LenientSuite) TestTryDecodeKeysSelected() {
	obj := map[string]any{
		"a": `[1]`,
		"b": `[2]`,
		"c": []byte(`{"y":true}`),
	}
	out := TryDecodeKeys(obj, "a", "c", "a", "missing")
	s.Equal(map[string]any{
		"a": []any{1.0},
		"b": `[2]`,
		"c": map[string]any{"y": true},
	}, out)
	s.NotContains(out, "missing")
}

func (s *LenientSuite) TestTryDecodeKeysNonText() {
	nested := map[string]any{"k": "v"}
	obj := map[string]any{
		"n":      42,
		"f":      1.5,
		"nested": nested,
		"list":   []any{`{"x":1}`},
		"nil":    nil,
		"empty":  "",
	}
	out := TryDecodeKeys(obj)
	s.Equal(42, out["n"])
	s.Equal(1.5, out["f"])
	s.Equal(nested, out["nested"])
	s.Equal([]any{`{"x":1}`}, out["list"])
	s.Nil(out["nil"])
	s.Equal("", out["empty"])
}

func (s *LenientSuite) TestTryDecodeKeysEmpty() {
	s.Nil(TryDecodeKeys(nil))
	s.Nil(TryDecodeKeys(map[string]any{}))
	s.Nil(TryDecodeKeys(nil, "a"))
}

func (s *LenientSuite) TestTryDecodeScalar() {
	s.Equal([]any{1.0, 2.0}, TryDecodeScalar("[1,2]"))
	s.Equal("plain", TryDecodeScalar("plain"))
	s.Equal(42, TryDecodeScalar(42))
	s.Equal("", TryDecodeScalar(""))
	s.Nil(TryDecodeScalar(nil))
	s.Equal(map[string]any{"a": nil}, TryDecodeScalar(`{"a":null}`))
	s.Equal("3", fmt.Sprint(TryDecodeScalar("3")))

	// 非法 UTF-8 视为解码失败，保留原值
	s.Equal("\"\xff\"", TryDecodeScalar("\"\xff\""))

	raw := []byte(`[1]`)
	s.Equal(raw, TryDecodeScalar(raw))
}

func (s *LenientSuite) TestTryDecodeRecords() {
	records := make([]map[string]any, 0, 64)
	for i := 0; i < 64; i++ {
		records = append(records, map[string]any{
			"id":      i,
			"payload": fmt.Sprintf(`{"i":%d}`, i),
			"note":    "text",
		})
	}
	records = append(records, nil, map[string]any{})

	out := TryDecodeRecords(records, "payload", "note")
	s.Len(out, 66)
	for i := 0; i < 64; i++ {
		s.Equal(i, out[i]["id"])
		s.Equal(map[string]any{"i": float64(i)}, out[i]["payload"])
		s.Equal("text", out[i]["note"])
	}
	s.Nil(out[64])
	s.Empty(out[65])

	s.Nil(TryDecodeRecords(nil))
}

func TestLenient(t *testing.T) {
	suite.Run(t, new(LenientSuite))
}
