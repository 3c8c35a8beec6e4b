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

package merr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// IO related
	ErrIoFailed = newJsonifyError("IO failed", 1001)

	// Parameter related
	ErrParameterInvalid = newJsonifyError("invalid parameter", 1100, WithErrorType(InputError))
	ErrParameterMissing = newJsonifyError("missing parameter", 1101, WithErrorType(InputError))

	// Codec related
	// ErrUnsupportedType 表示编码时遇到既非原生 JSON 类型、也非字节串、也未实现 Serializable 的节点。
	ErrUnsupportedType = newJsonifyError("type is not JSON serializable", 1500, WithErrorType(InputError))
	// ErrMalformedPayload 表示解码时输入不符合 JSON 语法。
	ErrMalformedPayload = newJsonifyError("malformed JSON payload", 1501, WithErrorType(InputError))

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to jsonifyError
	errUnexpected = newJsonifyError("unexpected error", (1<<16)-1)
)

type errorOption func(*jsonifyError)

func WithErrorType(etype ErrorType) errorOption {
	return func(err *jsonifyError) {
		err.errType = etype
	}
}

type jsonifyError struct {
	msg     string
	errCode int32
	errType ErrorType
}

func newJsonifyError(msg string, code int32, options ...errorOption) jsonifyError {
	err := jsonifyError{
		msg:     msg,
		errCode: code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e jsonifyError) code() int32 {
	return e.errCode
}

func (e jsonifyError) Error() string {
	return e.msg
}

func (e jsonifyError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(jsonifyError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

// Combine 将多个错误合并为一个，nil 会被忽略；全部为 nil 时返回 nil。
func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
