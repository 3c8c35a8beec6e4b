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

package conc

import "github.com/lk2023060901/jsonify-go/pkg/util/merr"

// Future 是提交到 Pool 的任务结果，任务结束后 done 被关闭。
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// failedFuture 返回一个已经完成并携带 err 的 Future。
func failedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.err = err
	close(f.done)
	return f
}

// Await 阻塞直到任务完成。
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.value, f.err
}

func (f *Future[T]) Value() T {
	v, _ := f.Await()
	return v
}

func (f *Future[T]) Err() error {
	_, err := f.Await()
	return err
}

func (f *Future[T]) OK() bool {
	return f.Err() == nil
}

// Done 返回任务完成时关闭的通道，用于 select。
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// AwaitAll 等待全部 Future 完成，合并返回所有错误。
func AwaitAll[T any](futures ...*Future[T]) error {
	errs := make([]error, 0, len(futures))
	for _, f := range futures {
		errs = append(errs, f.Err())
	}
	return merr.Combine(errs...)
}
