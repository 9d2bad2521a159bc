// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// AsyncLogger decouples callers of slog's handler from the latency of the
// underlying sink (typically a lumberjack.Logger doing file I/O and
// rotation) by handing writes to a buffered channel drained by a single
// goroutine. Writes that would block because the buffer is full are
// dropped rather than stalling the caller, on the theory that a missed
// diagnostic line is better than a stalled inode walk.
type AsyncLogger struct {
	out io.WriteCloser

	messages chan []byte

	done chan struct{}

	closeOnce sync.Once
}

// NewAsyncLogger starts the background writer goroutine and returns a
// logger ready to accept writes. bufferSize is the number of pending
// messages that may queue before new writes are dropped.
func NewAsyncLogger(out io.WriteCloser, bufferSize int) *AsyncLogger {
	l := &AsyncLogger{
		out:      out,
		messages: make(chan []byte, bufferSize),
		done:     make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *AsyncLogger) run() {
	defer close(l.done)
	for msg := range l.messages {
		if _, err := l.out.Write(msg); err != nil {
			fmt.Fprintf(os.Stderr, "asynclogger: write failed: %v\n", err)
		}
	}
}

// Write implements io.Writer. The slice is copied since the caller may
// reuse it after Write returns.
func (l *AsyncLogger) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)

	select {
	case l.messages <- buf:
	default:
		fmt.Fprintln(os.Stderr, "asynclogger: log buffer is full, dropping message.")
	}
	return len(p), nil
}

// Close drains the pending buffer, waits for the writer goroutine to
// finish, and closes the underlying sink.
func (l *AsyncLogger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.messages)
		<-l.done
		err = l.out.Close()
	})
	return err
}
