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

package log

import (
	"sync"

	"go.uber.org/zap/zapcore"
)

// lazyWithCore 推迟 core.With(fields) 到首次真正输出或派生时执行，
// 避免为从未输出的子 Logger 编码字段。参见 uber-go/zap#1426。
type lazyWithCore struct {
	base zapcore.Core
	with func() zapcore.Core
}

var _ zapcore.Core = (*lazyWithCore)(nil)

// NewLazyWith 返回延迟附加 fields 的 core。
func NewLazyWith(core zapcore.Core, fields []zapcore.Field) zapcore.Core {
	return &lazyWithCore{
		base: core,
		with: sync.OnceValue(func() zapcore.Core {
			return core.With(fields)
		}),
	}
}

// Enabled 只依赖级别，不需要附加字段。
func (c *lazyWithCore) Enabled(level zapcore.Level) bool {
	return c.base.Enabled(level)
}

func (c *lazyWithCore) With(fields []zapcore.Field) zapcore.Core {
	return c.with().With(fields)
}

func (c *lazyWithCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.base.Enabled(e.Level) {
		return ce
	}
	return c.with().Check(e, ce)
}

func (c *lazyWithCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	return c.with().Write(e, fields)
}

func (c *lazyWithCore) Sync() error {
	return c.with().Sync()
}
