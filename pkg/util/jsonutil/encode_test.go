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
	"encoding/json"
	"math"
	"testing"
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/jsonify-go/pkg/util/merr"
)

type point struct {
	X, Y int
}

func (p point) JSONValue() (any, error) {
	return map[string]any{"x": p.X, "y": p.Y}, nil
}

type brokenValue struct{}

func (brokenValue) JSONValue() (any, error) {
	return nil, errors.New("cannot describe")
}

type selfValue struct{}

func (s selfValue) JSONValue() (any, error) {
	return s, nil
}

type rawBytes []byte

type account struct {
	Name string
	Key  []byte
	Home point
}

func (a account) JSONValue() (any, error) {
	return map[string]any{"name": a.Name, "key": a.Key, "home": a.Home}, nil
}

type label string

type EncodeSuite struct {
	suite.Suite
}

func (s *EncodeSuite) TestRoundTrip() {
	values := []any{
		nil,
		true,
		false,
		1.5,
		-3.0,
		"hello 世界",
		[]any{},
		map[string]any{},
		[]any{1.0, "x", false, nil, []any{2.0}},
		map[string]any{
			"a": []any{1.0, map[string]any{"b": nil}},
			"c": "d",
			"e": map[string]any{"f": true},
		},
	}
	for _, v := range values {
		data, err := Encode(v)
		s.Require().NoError(err)
		decoded, err := Decode(data)
		s.Require().NoError(err)
		s.Equal(v, decoded, string(data))
	}
}

func (s *EncodeSuite) TestSerializable() {
	data, err := Encode(point{X: 1, Y: 2})
	s.NoError(err)
	s.Equal(`{"x":1,"y":2}`, string(data))

	// 嵌套在容器中的对象同样经过钩子
	data, err = Encode(map[string]any{"p": []any{point{X: 3}}})
	s.NoError(err)
	s.Equal(`{"p":[{"x":3,"y":0}]}`, string(data))

	data, err = Encode(&point{X: 4, Y: 5})
	s.NoError(err)
	s.Equal(`{"x":4,"y":5}`, string(data))
}

func (s *EncodeSuite) TestSerializableFails() {
	_, err := Encode(brokenValue{})
	s.ErrorIs(err, merr.ErrUnsupportedType)
	s.Contains(err.Error(), "cannot describe")
}

func (s *EncodeSuite) TestByteString() {
	data, err := Encode([]byte("hi"))
	s.NoError(err)
	s.Equal(`"hi"`, string(data))

	data, err = Encode(map[string]any{"raw": rawBytes("hi")})
	s.NoError(err)
	s.Equal(`{"raw":"hi"}`, string(data))
}

func (s *EncodeSuite) TestUnsupportedType() {
	fn := func() {}
	var x int
	values := []any{
		make(chan int),
		fn,
		complex(1, 2),
		unsafe.Pointer(&x),
		map[int]string{1: "a"},
		map[string]any{"ok": 1, "bad": make(chan int)},
		[]any{1, fn},
	}
	for _, v := range values {
		_, err := Encode(v)
		s.ErrorIs(err, merr.ErrUnsupportedType, "%T", v)

		_, err = EncodePretty(v)
		s.ErrorIs(err, merr.ErrUnsupportedType, "%T", v)
	}
}

func (s *EncodeSuite) TestRecursionLimit() {
	var nested any = "leaf"
	for i := 0; i < 300; i++ {
		nested = []any{nested}
	}
	_, err := Encode(nested)
	s.ErrorIs(err, merr.ErrUnsupportedType)
	s.Contains(err.Error(), "recursion limit reached")

	_, err = Encode(selfValue{})
	s.ErrorIs(err, merr.ErrUnsupportedType)

	var shallow any = "leaf"
	for i := 0; i < 100; i++ {
		shallow = []any{shallow}
	}
	_, err = Encode(shallow)
	s.NoError(err)
}

func (s *EncodeSuite) TestNonFiniteFloat() {
	data, err := Encode(map[string]any{
		"nan":  math.NaN(),
		"inf":  math.Inf(1),
		"ninf": float32(math.Inf(-1)),
		"ok":   0.25,
	})
	s.NoError(err)
	s.Equal(`{"inf":null,"nan":null,"ninf":null,"ok":0.25}`, string(data))
}

func (s *EncodeSuite) TestSortedKeys() {
	data, err := Encode(map[string]any{"b": 1, "a": 2, "c": 3})
	s.NoError(err)
	s.Equal(`{"a":2,"b":1,"c":3}`, string(data))
}

func (s *EncodeSuite) TestPretty() {
	data, err := EncodePretty(map[string]any{"b": []any{1, 2}, "a": "x"})
	s.NoError(err)
	s.Equal("{\n  \"a\": \"x\",\n  \"b\": [\n    1,\n    2\n  ]\n}", string(data))

	compact, err := Encode(map[string]any{"b": []any{1, 2}, "a": "x"})
	s.NoError(err)
	decodedPretty, err := Decode(data)
	s.NoError(err)
	decodedCompact, err := Decode(compact)
	s.NoError(err)
	s.Equal(decodedCompact, decodedPretty)
}

func (s *EncodeSuite) TestNoHTMLEscape() {
	data, err := Encode("<a&b>")
	s.NoError(err)
	s.Equal(`"<a&b>"`, string(data))
}

func (s *EncodeSuite) TestNativeKinds() {
	n := 7
	var nilPtr *int
	data, err := Encode(map[string]any{
		"label":  label("red"),
		"ptr":    &n,
		"nilptr": nilPtr,
		"arr":    [2]int{1, 2},
		"ints":   []int{3, 4},
		"labels": map[label]int{"k": 1},
		"uint":   uint8(9),
	})
	s.NoError(err)
	s.Equal(`{"arr":[1,2],"ints":[3,4],"label":"red","labels":{"k":1},"nilptr":null,"ptr":7,"uint":9}`, string(data))
}

func (s *EncodeSuite) TestCodecNative() {
	data, err := Encode(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	s.NoError(err)
	s.Equal(`"2024-01-02T03:04:05Z"`, string(data))

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err = Encode(map[string]any{"at": &ts})
	s.NoError(err)
	s.Equal(`{"at":"2024-01-02T03:04:05Z"}`, string(data))

	// json.RawMessage 自带表示，不当作字节串
	data, err = Encode(map[string]any{"raw": json.RawMessage(`{"x":1}`)})
	s.NoError(err)
	s.Equal(`{"raw":{"x":1}}`, string(data))

	out, handled, err := TryEncode(json.RawMessage(`[1]`))
	s.NoError(err)
	s.False(handled)
	s.Nil(out)
}

func (s *EncodeSuite) TestPlainStruct() {
	type user struct {
		Name string `json:"name"`
		Raw  []byte `json:"raw"`
	}
	type holder struct {
		Item point
	}
	type opaque struct {
		secret int
	}
	values := []any{
		user{Name: "ann", Raw: []byte("hi")},
		&user{Name: "bob"},
		holder{Item: point{X: 1}},
		opaque{secret: 1},
		map[string]any{"x": opaque{}},
		[]any{1, &opaque{}},
	}
	for _, v := range values {
		_, err := Encode(v)
		s.ErrorIs(err, merr.ErrUnsupportedType, "%T", v)
		s.Contains(err.Error(), "struct without JSON representation")
	}

	// 实现 Serializable 的结构体经过钩子，其字段同样被规整
	data, err := Encode(account{Name: "ann", Key: []byte("k1"), Home: point{X: 2, Y: 3}})
	s.NoError(err)
	s.Equal(`{"home":{"x":2,"y":3},"key":"k1","name":"ann"}`, string(data))
}

func (s *EncodeSuite) TestProtoMessage() {
	msg, err := structpb.NewStruct(map[string]any{
		"name": "ann",
		"tags": []any{"a", "b"},
		"n":    1,
	})
	s.Require().NoError(err)

	data, err := Encode(msg)
	s.NoError(err)
	s.Equal(`{"n":1,"name":"ann","tags":["a","b"]}`, string(data))

	data, err = Encode(map[string]any{"v": structpb.NewStringValue("x")})
	s.NoError(err)
	s.Equal(`{"v":"x"}`, string(data))
}

func (s *EncodeSuite) TestTryEncode() {
	out, handled, err := TryEncode(point{X: 1})
	s.NoError(err)
	s.True(handled)
	s.Equal(map[string]any{"x": 1, "y": 0}, out)

	out, handled, err = TryEncode([]byte("hi"))
	s.NoError(err)
	s.True(handled)
	s.Equal("hi", out)

	out, handled, err = TryEncode(rawBytes("yo"))
	s.NoError(err)
	s.True(handled)
	s.Equal("yo", out)

	_, handled, err = TryEncode(make(chan int))
	s.NoError(err)
	s.False(handled)

	_, handled, err = TryEncode(brokenValue{})
	s.True(handled)
	s.ErrorIs(err, merr.ErrUnsupportedType)
}

func TestEncode(t *testing.T) {
	suite.Run(t, new(EncodeSuite))
}

func BenchmarkEncode(b *testing.B) {
	v := map[string]any{
		"id":    1,
		"name":  "bench",
		"tags":  []any{"a", "b", "c"},
		"point": point{X: 1, Y: 2},
		"raw":   []byte(`{"x":1}`),
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(v); err != nil {
			b.Fatal(err)
		}
	}
}
