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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	codecMetricSubsystem = "codec"

	EncodeOpLabel           = "encode"
	DecodeOpLabel           = "decode"
	LoadFileOpLabel         = "load_file"
	TryDecodeKeysOpLabel    = "try_decode_keys"
	TryDecodeScalarOpLabel  = "try_decode_scalar"
	TryDecodeRecordsOpLabel = "try_decode_records"
)

var (
	codecMetricsRegisterOnce sync.Once

	CodecEncodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: jsonifyNamespace,
			Subsystem: codecMetricSubsystem,
			Name:      "encode_total",
			Help:      "编码调用次数，按结果区分",
		}, []string{resultLabelName})

	CodecDecodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: jsonifyNamespace,
			Subsystem: codecMetricSubsystem,
			Name:      "decode_total",
			Help:      "严格解码调用次数，按入口与结果区分",
		}, []string{opLabelName, resultLabelName})

	CodecBestEffortTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: jsonifyNamespace,
			Subsystem: codecMetricSubsystem,
			Name:      "best_effort_total",
			Help:      "尽力解码的值个数，fallback 表示保留了原值",
		}, []string{opLabelName, resultLabelName})

	CodecPayloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: jsonifyNamespace,
			Subsystem: codecMetricSubsystem,
			Name:      "payload_bytes",
			Help:      "编码输出与解码输入的负载大小",
			Buckets:   sizeBuckets,
		}, []string{opLabelName})
)

// RegisterCodecMetrics 将编解码相关的指标注册到 Prometheus Registerer 中。
func RegisterCodecMetrics(registry prometheus.Registerer) {
	codecMetricsRegisterOnce.Do(func() {
		registry.MustRegister(CodecEncodeTotal)
		registry.MustRegister(CodecDecodeTotal)
		registry.MustRegister(CodecBestEffortTotal)
		registry.MustRegister(CodecPayloadBytes)
	})
}
