package goroutine

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// Runner запускает фоновые задачи с перехватом panic.
type Runner struct {
	log *logrus.Logger
	wg  sync.WaitGroup
}

func NewRunner(log *logrus.Logger) *Runner {
	return &Runner{log: log}
}

// Go запускает fn в отдельной горутине. Panic логируется и не роняет процесс.
func (r *Runner) Go(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.WithField("stack", string(debug.Stack())).Errorf("panic в горутине: %v", rec)
			}
		}()
		fn()
	}()
}

// GoWithContext запускает fn с контекстом, отвязанным от отмены запроса.
func (r *Runner) GoWithContext(ctx context.Context, fn func(context.Context)) {
	detached := context.WithoutCancel(ctx)
	r.Go(func() { fn(detached) })
}

// Wait блокируется до завершения всех запущенных задач.
func (r *Runner) Wait() {
	r.wg.Wait()
}
