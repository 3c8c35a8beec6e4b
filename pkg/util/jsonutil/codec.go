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

// Package jsonutil 在 bytedance/sonic 之上提供 JSON 编解码辅助能力：
// 支持自定义对象的编码钩子、严格解码、按 key 的尽力解码、标量尽力解码、
// JSON 类型判定以及文件加载。
//
// 编码前会先把值树规整为 sonic 原生可编码的形态：
//
//	Serializable -> JSONValue() 的结果
//	proto.Message -> protojson 输出再解码得到的值
//	[]byte -> 按 UTF-8 解释的字符串
package jsonutil

import (
	"sync"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/utf8"
	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/lk2023060901/jsonify-go/pkg/util/compressor"
)

const (
	// maxDepth 为编码时允许的最大嵌套层数，超过即视为无法编码。
	maxDepth = 255

	prettyIndent = "  "
)

var (
	// encodeAPI 用于 Encode/EncodePretty。
	// map key 排序保证输出稳定；不转义 HTML；非法 UTF-8 替换为 �。
	encodeAPI = sonic.Config{
		SortMapKeys:      true,
		CompactMarshaler: true,
		ValidateString:   true,
	}.Froze()

	// decodeAPI 用于 Decode 以及尽力解码。
	// ValidateString 拒绝字符串中未转义的控制字符，非法 UTF-8 由
	// unmarshalString 预先检查；CopyString 避免解码结果引用调用方的缓冲区。
	decodeAPI = sonic.Config{
		ValidateString: true,
		CopyString:     true,
	}.Froze()

	// fileAPI 为 LoadFile 使用的通用解析器，与自定义编码逻辑无关。
	fileAPI = jsoniter.ConfigCompatibleWithStandardLibrary
)

var (
	zstdOnce sync.Once
	zstdC    *compressor.ZstdCompressor
	zstdErr  error
)

// getZstd 返回进程内共享的 zstd 压缩器。
func getZstd() (*compressor.ZstdCompressor, error) {
	zstdOnce.Do(func() {
		zstdC, zstdErr = compressor.NewZstdCompressor()
	})
	return zstdC, zstdErr
}

// errInvalidUTF8 表示输入含有非法的 UTF-8 序列。
var errInvalidUTF8 = errors.New("invalid UTF-8 in JSON text")

// unmarshalString 使用严格解码配置解析 s。
// sonic 会把非法 UTF-8 替换为 �，因此先整体校验。
func unmarshalString(s string) (any, error) {
	if !utf8.ValidateString(s) {
		return nil, errInvalidUTF8
	}
	var v any
	if err := decodeAPI.UnmarshalFromString(s, &v); err != nil {
		return nil, err
	}
	return v, nil
}
