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
	"bytes"
	"context"
	"io"
	"os"

	"github.com/bytedance/sonic/utf8"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/jsonify-go/pkg/log"
	"github.com/lk2023060901/jsonify-go/pkg/metrics"
	"github.com/lk2023060901/jsonify-go/pkg/util/compressor"
	"github.com/lk2023060901/jsonify-go/pkg/util/merr"
)

// 加载失败日志按分组限流，批量加载大量坏文件时不会刷屏。
const (
	loadFailRateGroup       = "jsonutil.LoadFile"
	loadFailCreditPerSecond = 1
	loadFailMaxBalance      = 10
)

// Payload 为 Decode 接受的输入形态。
type Payload interface {
	~string | ~[]byte
}

// Decode 严格解析一段完整的 JSON 文本。
//
// 对象解码为 map[string]any，数组为 []any，数字为 float64。
// 语法错误、尾随的非空白内容、空输入均返回 merr.ErrMalformedPayload。
func Decode[P Payload](payload P) (any, error) {
	v, err := unmarshalString(string(payload))
	if err != nil {
		metrics.CodecDecodeTotal.WithLabelValues(metrics.DecodeOpLabel, metrics.FailLabel).Inc()
		return nil, merr.WrapErrMalformedPayload(err)
	}
	metrics.CodecDecodeTotal.WithLabelValues(metrics.DecodeOpLabel, metrics.SuccessLabel).Inc()
	metrics.CodecPayloadBytes.WithLabelValues(metrics.DecodeOpLabel).Observe(float64(len(payload)))
	return v, nil
}

// LoadFile 读取并解析 path 指向的 JSON 文件。
func LoadFile(path string) (any, error) {
	return LoadFileCtx(context.Background(), path)
}

// LoadFileCtx 与 LoadFile 相同，日志带上 ctx 中的字段。
//
// 以 zstd 帧开头的文件会先解压再解析。
// 文件无法打开或读取时返回 merr.ErrIoFailed，内容不是合法 JSON 时返回
// merr.ErrMalformedPayload。文件句柄在所有路径上都会被关闭。
func LoadFileCtx(ctx context.Context, path string) (any, error) {
	logger := log.Ctx(ctx).With(log.FieldPath(path)).
		WithRateGroup(loadFailRateGroup, loadFailCreditPerSecond, loadFailMaxBalance)

	data, err := readFile(path)
	if err != nil {
		metrics.CodecDecodeTotal.WithLabelValues(metrics.LoadFileOpLabel, metrics.FailLabel).Inc()
		logger.RatedDebug(1, "failed to read json file", zap.Error(err))
		return nil, merr.WrapErrIoFailed(path, err)
	}

	if compressor.IsZstd(data) {
		data, err = decompress(data)
		if err != nil {
			metrics.CodecDecodeTotal.WithLabelValues(metrics.LoadFileOpLabel, metrics.FailLabel).Inc()
			logger.RatedDebug(1, "failed to decompress json file", zap.Error(err))
			return nil, merr.WrapErrMalformedPayload(err, path)
		}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		metrics.CodecDecodeTotal.WithLabelValues(metrics.LoadFileOpLabel, metrics.FailLabel).Inc()
		return nil, merr.WrapErrMalformedPayload(errors.New("empty file"), path)
	}

	if !utf8.Validate(data) {
		metrics.CodecDecodeTotal.WithLabelValues(metrics.LoadFileOpLabel, metrics.FailLabel).Inc()
		logger.RatedDebug(1, "json file is not valid UTF-8")
		return nil, merr.WrapErrMalformedPayload(errInvalidUTF8, path)
	}

	var v any
	if err := fileAPI.Unmarshal(data, &v); err != nil {
		metrics.CodecDecodeTotal.WithLabelValues(metrics.LoadFileOpLabel, metrics.FailLabel).Inc()
		logger.RatedDebug(1, "failed to parse json file", zap.Error(err))
		return nil, merr.WrapErrMalformedPayload(err, path)
	}

	metrics.CodecDecodeTotal.WithLabelValues(metrics.LoadFileOpLabel, metrics.SuccessLabel).Inc()
	metrics.CodecPayloadBytes.WithLabelValues(metrics.LoadFileOpLabel).Observe(float64(len(data)))
	logger.Debug("json file loaded", log.FieldBytes(len(data)))
	return v, nil
}

func decompress(data []byte) ([]byte, error) {
	c, err := getZstd()
	if err != nil {
		return nil, err
	}
	return c.Decompress(nil, data)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
