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
	"reflect"

	"google.golang.org/protobuf/proto"
)

// JSONType 是值对应的 JSON 类型名。
type JSONType string

const (
	TypeString  JSONType = "string"
	TypeNumber  JSONType = "number"
	TypeObject  JSONType = "object"
	TypeArray   JSONType = "array"
	TypeBoolean JSONType = "boolean"
	TypeNull    JSONType = "null"
	TypeUnknown JSONType = "unknown"
)

func (t JSONType) String() string {
	return string(t)
}

// Classify 返回 v 在 JSON 中对应的类型名，只看顶层，不递归。
//
// 布尔值为 boolean，nil 与空指针为 null。尚未经过编码钩子转换的对象
// （Serializable、proto.Message、字节串）以及其它无法对应的值为 unknown。
func Classify(v any) JSONType {
	if v == nil {
		return TypeNull
	}
	switch v.(type) {
	case Serializable, proto.Message:
		return TypeUnknown
	case json.Number:
		return TypeNumber
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return TypeNull
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return TypeBoolean
	case reflect.String:
		return TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return TypeNumber
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return TypeObject
		}
	case reflect.Slice:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return TypeArray
		}
	case reflect.Array:
		return TypeArray
	}
	return TypeUnknown
}
