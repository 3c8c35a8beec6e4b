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
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// jsonifyNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	jsonifyNamespace = "jsonify"

	// 以下为当前使用的通用标签名。
	opLabelName     = "op"
	resultLabelName = "result"

	SuccessLabel  = "success"
	FailLabel     = "fail"
	FallbackLabel = "fallback"
	SkipLabel     = "skip"
)

var (
	// sizeBuckets 为负载大小的桶划分，单位为字节。
	// [64 256 1024 4096 16384 65536 262144 1.048576e+06 4.194304e+06 1.6777216e+07]
	sizeBuckets = prometheus.ExponentialBuckets(64, 4, 10)

	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标。
func Register(r prometheus.Registerer) {
	RegisterCodecMetrics(r)
	metricRegisterer = r
}
