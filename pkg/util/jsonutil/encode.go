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
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/lk2023060901/jsonify-go/pkg/metrics"
	"github.com/lk2023060901/jsonify-go/pkg/util/merr"
)

// Serializable 由能够自行描述为 JSON 值的领域对象实现。
//
// JSONValue 返回的值会被继续规整，因此可以包含 map、slice、[]byte
// 乃至其它 Serializable。
type Serializable interface {
	JSONValue() (any, error)
}

// Encode 将 v 编码为紧凑的 JSON。
// 无法编码的节点返回 merr.ErrUnsupportedType。
func Encode(v any) ([]byte, error) {
	return encode(v, false)
}

// EncodePretty 将 v 编码为两个空格缩进的多行 JSON。
// 比 Encode 慢，仅用于面向人的输出。
func EncodePretty(v any) ([]byte, error) {
	return encode(v, true)
}

func encode(v any, pretty bool) ([]byte, error) {
	normalized, err := normalize(v, 0)
	if err != nil {
		metrics.CodecEncodeTotal.WithLabelValues(metrics.FailLabel).Inc()
		return nil, err
	}

	var out []byte
	if pretty {
		out, err = encodeAPI.MarshalIndent(normalized, "", prettyIndent)
	} else {
		out, err = encodeAPI.Marshal(normalized)
	}
	if err != nil {
		// json.Marshaler 等透传给 sonic 的值可能自身编码失败。
		metrics.CodecEncodeTotal.WithLabelValues(metrics.FailLabel).Inc()
		return nil, merr.WrapErrUnsupportedType(typeName(v), err.Error())
	}

	metrics.CodecEncodeTotal.WithLabelValues(metrics.SuccessLabel).Inc()
	metrics.CodecPayloadBytes.WithLabelValues(metrics.EncodeOpLabel).Observe(float64(len(out)))
	return out, nil
}

// EncodeCompressed 与 Encode 相同，输出再经过 zstd 压缩，可直接由 LoadFile 读取。
func EncodeCompressed(v any) ([]byte, error) {
	data, err := Encode(v)
	if err != nil {
		return nil, err
	}
	c, err := getZstd()
	if err != nil {
		return nil, err
	}
	return c.Compress(nil, data)
}

// TryEncode 是编码钩子：把非原生节点转换为可编码的值。
//
// 依次尝试 Serializable、proto.Message 与字节串；都不匹配时 handled 为 false。
func TryEncode(v any) (out any, handled bool, err error) {
	switch val := v.(type) {
	case Serializable:
		out, err := val.JSONValue()
		if err != nil {
			return nil, true, merr.Combine(err, merr.WrapErrUnsupportedType(typeName(v), "JSONValue failed"))
		}
		return out, true, nil
	case proto.Message:
		data, err := protojson.Marshal(val)
		if err != nil {
			return nil, true, merr.Combine(err, merr.WrapErrUnsupportedType(typeName(v), "protojson failed"))
		}
		out, err := unmarshalString(string(data))
		if err != nil {
			return nil, true, merr.Combine(err, merr.WrapErrUnsupportedType(typeName(v), "protojson output unreadable"))
		}
		return out, true, nil
	case []byte:
		// 非 UTF-8 字节会被替换为 �，这是已知的有损转换。
		return string(val), true, nil
	}

	// 自带 JSON 表示的字节串类型（如 json.RawMessage）不按文本处理。
	if isCodecNative(v) {
		return nil, false, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return string(rv.Bytes()), true, nil
	}
	return nil, false, nil
}

// isCodecNative 判断 v 是否自带 JSON 表示，如 time.Time 与 json.RawMessage。
func isCodecNative(v any) bool {
	switch v.(type) {
	case json.Marshaler, encoding.TextMarshaler:
		return true
	}
	return false
}

// normalize 把 v 转换为 sonic 可以直接编码的值树。
func normalize(v any, depth int) (any, error) {
	if depth > maxDepth {
		return nil, merr.WrapErrUnsupportedType(typeName(v), "recursion limit reached")
	}

	switch val := v.(type) {
	case nil:
		return nil, nil
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return val, nil
	case float64:
		return finite(val), nil
	case float32:
		return finite(float64(val)), nil
	case []any:
		return normalizeSlice(reflect.ValueOf(val), depth)
	case map[string]any:
		return normalizeMap(reflect.ValueOf(val), depth)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}

	out, handled, err := TryEncode(v)
	if err != nil {
		return nil, err
	}
	if handled {
		return normalize(out, depth+1)
	}

	if isCodecNative(v) {
		return v, nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float()), nil
	case reflect.Pointer:
		return normalize(rv.Elem().Interface(), depth+1)
	case reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return normalize(rv.Elem().Interface(), depth+1)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, merr.WrapErrUnsupportedType(typeName(v), "map key must be string")
		}
		return normalizeMap(rv, depth)
	case reflect.Slice, reflect.Array:
		return normalizeSlice(rv, depth)
	case reflect.Struct:
		// 结构体需要实现 Serializable 或自带 JSON 表示，否则其字段无法经过钩子。
		return nil, merr.WrapErrUnsupportedType(typeName(v), "struct without JSON representation")
	default:
		// Chan, Func, Complex64, Complex128, UnsafePointer
		return nil, merr.WrapErrUnsupportedType(typeName(v))
	}
}

func normalizeMap(rv reflect.Value, depth int) (any, error) {
	if rv.IsNil() {
		return nil, nil
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		val, err := normalize(iter.Value().Interface(), depth+1)
		if err != nil {
			return nil, err
		}
		out[iter.Key().String()] = val
	}
	return out, nil
}

func normalizeSlice(rv reflect.Value, depth int) (any, error) {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		val, err := normalize(rv.Index(i).Interface(), depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

// finite 把 NaN 与 ±Inf 编码为 null。
func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
