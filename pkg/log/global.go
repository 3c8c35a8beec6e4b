// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.


package log

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxLogKeyType struct{}

// CtxLogKey 为 ctx 中保存 *MLogger 的 key。
var CtxLogKey = ctxLogKeyType{}

// With 基于全局 Logger 创建携带额外字段的子 Logger，字段在首次输出时才编码。
func With(fields ...zap.Field) *MLogger {
	return &MLogger{
		Logger: L().WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return NewLazyWith(core, fields)
		})).WithOptions(zap.AddCallerSkip(-1)),
	}
}

// SetLevel 设置全局日志级别。
func SetLevel(l zapcore.Level) {
	Level().SetLevel(l)
}

// GetLevel 获取当前全局日志级别。
func GetLevel() zapcore.Level {
	return Level().Level()
}

// WithModule 为 ctx 中的 Logger 添加模块名字段。
func WithModule(ctx context.Context, module string) context.Context {
	return WithFields(ctx, FieldModule(module))
}

// WithComponent 为 ctx 中的 Logger 添加组件名字段。
func WithComponent(ctx context.Context, component string) context.Context {
	return WithFields(ctx, FieldComponent(component))
}

// WithFields 返回一个附加了指定字段的上下文，已有字段保留。
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	base := ctxL()
	if ctxLogger, ok := ctx.Value(CtxLogKey).(*MLogger); ok {
		base = ctxLogger.Logger
	}
	return context.WithValue(ctx, CtxLogKey, &MLogger{Logger: base.With(fields...)})
}

// Ctx 返回 ctx 中绑定的 Logger，未绑定时返回按全局级别过滤的 Logger。
// ctx 为 nil 时同样返回全局 Logger。
func Ctx(ctx context.Context) *MLogger {
	if ctx != nil {
		if ctxLogger, ok := ctx.Value(CtxLogKey).(*MLogger); ok {
			return ctxLogger
		}
	}
	return &MLogger{Logger: ctxL()}
}
