package log

import (
	"bytes"

	"go.uber.org/zap/zaptest"
)

// testingWriter 把日志转发到 t.Logf，供 InitTestLogger 使用。
// failTest 为 true 时每次写入都会把测试标记为失败，用于 zap 内部错误输出。
type testingWriter struct {
	t        zaptest.TestingT
	failTest bool
}

func (w testingWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", bytes.TrimRight(p, "\n"))
	if w.failTest {
		w.t.Fail()
	}
	return len(p), nil
}

func (testingWriter) Sync() error {
	return nil
}
