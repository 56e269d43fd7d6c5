package transport

import (
	"github.com/kestrel-http/kestrel/config"
	"github.com/kestrel-http/kestrel/instrumenter"
	"github.com/kestrel-http/kestrel/internal/pool"
	"github.com/kestrel-http/kestrel/internal/timer"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type listener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

type TCP struct {
	l       listener
	wg      *sync.WaitGroup
	stop    *atomic.Bool
	workers *pool.WorkerPool
}

func NewTCP() *TCP {
	tcp := newTCP(nil)
	return &tcp
}

func newTCP(l listener) TCP {
	return TCP{
		l:    l,
		wg:   new(sync.WaitGroup),
		stop: new(atomic.Bool),
	}
}

func bindTCP(addr string) (*net.TCPListener, error) {
	tcpaddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}

	return net.ListenTCP("tcp", tcpaddr)
}

func (t *TCP) Bind(addr string) (err error) {
	t.l, err = bindTCP(addr)
	return err
}

func (t *TCP) Listen(cfg config.NET, cb func(conn net.Conn)) error {
	if t.workers == nil {
		t.workers = pool.NewWorkerPool(cfg.WorkerThreads)
	}

	instr := cfg.Instrumenter
	if instr == nil {
		instr = instrumenter.Noop{}
	}

	for !t.stop.Load() {
		err := t.l.SetDeadline(timer.Now().Add(cfg.AcceptLoopInterruptPeriod))
		if err != nil {
			return err
		}

		conn, err := t.l.Accept()
		if err != nil {
			if err.(*net.OpError).Err.Error() == os.ErrDeadlineExceeded.Error() {
				continue
			}

			return err
		}

		instr.AcceptedConnection()
		t.wg.Add(1)

		task := func() {
			cb(conn)
			_ = conn.Close()
			t.wg.Done()
		}

		// the worker owns this connection for its entire life; if every worker's queue is
		// full the task runs inline so the accept loop never blocks on a saturated pool.
		if !t.workers.Submit(task) {
			instr.PoolSaturated()
			task()
		}
	}

	return nil
}

func (t *TCP) Stop() {
	t.stop.Store(true)
}

func (t *TCP) Close() {
	_ = t.l.Close()

	if t.workers != nil {
		t.workers.Close()
	}
}

func (t *TCP) Wait() {
	t.wg.Wait()
}
