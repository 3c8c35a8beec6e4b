package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNamePath      = "path"
	FieldNameBytes     = "bytes"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldPath 返回一个包含文件路径的 zap 字段。
func FieldPath(path string) zap.Field {
	return zap.String(FieldNamePath, path)
}

// FieldBytes 返回一个包含负载字节数的 zap 字段。
func FieldBytes(n int) zap.Field {
	return zap.Int(FieldNameBytes, n)
}
