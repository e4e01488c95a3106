package irc

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// defaultWorkers is used when configuration doesn't specify workers_size.
const defaultWorkers = 2

// WorkerPool is a fixed-size pool of goroutines draining a shared task
// queue. Submitted tasks that panic or otherwise misbehave are contained:
// the pool recovers a panicking task, logs it, and keeps the worker alive
// for the next task.
type WorkerPool struct {
	Log logrus.FieldLogger

	tasks     chan func()
	wg        sync.WaitGroup
	closeOnce sync.Once
	done      chan struct{}
}

// NewWorkerPool starts size workers (defaultWorkers when size is less than 1)
// reading from an internally buffered task queue.
func NewWorkerPool(size int, log logrus.FieldLogger) *WorkerPool {
	if size < 1 {
		size = defaultWorkers
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &WorkerPool{
		Log:   log,
		tasks: make(chan func(), 256),
		done:  make(chan struct{}),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

// Submit queues task for execution on the pool. It blocks if the internal
// queue is full.
func (p *WorkerPool) Submit(task func()) {
	select {
	case p.tasks <- task:
	case <-p.done:
	}
}

// Stop signals all workers to exit once their current task finishes and
// waits for them to do so. Tasks still queued when Stop is called may or may
// not run; Stop does not wait for them.
func (p *WorkerPool) Stop() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			p.run(task)
		case <-p.done:
			return
		}
	}
}

func (p *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.Log.WithField("panic", r).Error("irc: worker task panicked")
		}
	}()
	task()
}
