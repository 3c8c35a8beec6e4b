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
	"sync"

	"go.uber.org/zap"

	"github.com/lk2023060901/jsonify-go/pkg/log"
	"github.com/lk2023060901/jsonify-go/pkg/metrics"
	"github.com/lk2023060901/jsonify-go/pkg/util/conc"
	"github.com/lk2023060901/jsonify-go/pkg/util/typeutil"
)

var (
	recordPoolOnce sync.Once
	recordPool     *conc.Pool[struct{}]
)

func getRecordPool() *conc.Pool[struct{}] {
	recordPoolOnce.Do(func() {
		recordPool = conc.NewPool[struct{}](0, conc.WithName("jsonutil-records"), conc.WithPreAlloc(true))
	})
	return recordPool
}

// TryDecodeKeys 对 obj 中选中的 key 做尽力解码，原地修改并返回 obj。
//
// 未指定 keys 时选中全部 key。只有 string 与 []byte 类型的值会被尝试解析，
// 解析成功则替换为解码结果，否则保持原值。不存在的 key 被忽略，不会新增。
// 空或 nil 的 obj 返回 nil。该函数不会失败。
func TryDecodeKeys(obj map[string]any, keys ...string) map[string]any {
	if len(obj) == 0 {
		return nil
	}

	selected := typeutil.NewSet(keys...)
	if selected.Len() == 0 {
		selected = typeutil.NewSetFromMapKeys(obj)
	}

	for key := range selected {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if decoded, ok := tryDecodeText(raw, metrics.TryDecodeKeysOpLabel); ok {
			obj[key] = decoded
		}
	}
	return obj
}

// TryDecodeScalar 尝试把非空字符串解析为 JSON，失败时原样返回 v。
// 其它类型（包括空字符串）直接返回。
func TryDecodeScalar(v any) any {
	s, ok := v.(string)
	if !ok || s == "" {
		metrics.CodecBestEffortTotal.WithLabelValues(metrics.TryDecodeScalarOpLabel, metrics.SkipLabel).Inc()
		return v
	}
	decoded, err := unmarshalString(s)
	if err != nil {
		metrics.CodecBestEffortTotal.WithLabelValues(metrics.TryDecodeScalarOpLabel, metrics.FallbackLabel).Inc()
		return v
	}
	metrics.CodecBestEffortTotal.WithLabelValues(metrics.TryDecodeScalarOpLabel, metrics.SuccessLabel).Inc()
	return decoded
}

// TryDecodeRecords 在协程池中对每条记录执行 TryDecodeKeys。
//
// 记录原地修改，返回同一个切片。不同记录必须是互不共享的 map。
func TryDecodeRecords(records []map[string]any, keys ...string) []map[string]any {
	if len(records) == 0 {
		return records
	}

	type pending struct {
		record map[string]any
		future *conc.Future[struct{}]
	}

	pool := getRecordPool()
	tasks := make([]pending, 0, len(records))
	for _, record := range records {
		if len(record) == 0 {
			continue
		}
		future := pool.Submit(func() (struct{}, error) {
			TryDecodeKeys(record, keys...)
			return struct{}{}, nil
		})
		tasks = append(tasks, pending{record: record, future: future})
	}

	for _, task := range tasks {
		if _, err := task.future.Await(); err != nil {
			// 提交失败时就地处理
			log.With(log.FieldComponent("jsonutil")).
				WithRateGroup("jsonutil.TryDecodeRecords", 1, 10).
				RatedWarn(1, "record pool unavailable, decoding inline", zap.Error(err))
			metrics.CodecBestEffortTotal.WithLabelValues(metrics.TryDecodeRecordsOpLabel, metrics.FallbackLabel).Inc()
			TryDecodeKeys(task.record, keys...)
			continue
		}
		metrics.CodecBestEffortTotal.WithLabelValues(metrics.TryDecodeRecordsOpLabel, metrics.SuccessLabel).Inc()
	}
	return records
}

// tryDecodeText 解析字符串或字节串类型的值，返回是否成功。
func tryDecodeText(raw any, op string) (any, bool) {
	var (
		decoded any
		err     error
	)
	switch val := raw.(type) {
	case string:
		decoded, err = unmarshalString(val)
	case []byte:
		decoded, err = unmarshalString(string(val))
	default:
		metrics.CodecBestEffortTotal.WithLabelValues(op, metrics.SkipLabel).Inc()
		return nil, false
	}
	if err != nil {
		metrics.CodecBestEffortTotal.WithLabelValues(op, metrics.FallbackLabel).Inc()
		return nil, false
	}
	metrics.CodecBestEffortTotal.WithLabelValues(op, metrics.SuccessLabel).Inc()
	return decoded, true
}
