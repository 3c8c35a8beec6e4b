package log

import "go.uber.org/atomic"

var (
	_ WithLogger   = &Binder{}
	_ LoggerBinder = &Binder{}
)

// WithLogger 由持有独立 Logger 的组件实现。
type WithLogger interface {
	Logger() *MLogger
}

// LoggerBinder 由可以注入 Logger 的组件实现。
type LoggerBinder interface {
	SetLogger(logger *MLogger)
}

// Binder 嵌入到组件中，为组件提供可替换的 Logger。
type Binder struct {
	logger atomic.Pointer[MLogger]
}

// SetLogger 替换组件的 Logger。
func (b *Binder) SetLogger(logger *MLogger) {
	b.logger.Store(logger)
}

// BindComponent 将组件 Logger 设为带 component 字段的全局 Logger。
func (b *Binder) BindComponent(component string) {
	b.SetLogger(With(FieldComponent(component)))
}

// Logger 返回组件的 Logger，尚未绑定时返回全局 Logger。
func (b *Binder) Logger() *MLogger {
	if l := b.logger.Load(); l != nil {
		return l
	}
	return &MLogger{Logger: L()}
}
