package relay

import (
	"sync"
	"testing"
	"time"
)

func TestEventQueueEnqueueProcessDispatchesInOrder(t *testing.T) {
	d := NewEventDispatcher[string, int]()
	q := NewEventQueue[string, int](d)

	var got []int
	d.AppendListener("x", func(v int) { got = append(got, v) })

	for i := 0; i < 5; i++ {
		if err := q.Enqueue("x", i); err != nil {
			t.Fatalf("Enqueue returned error: %v", err)
		}
	}
	q.Process()

	for i, v := range got {
		if v != i {
			t.Fatalf("out of order drain: %v", got)
		}
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 dispatches, got %d", len(got))
	}
}

func TestEventQueueProcessOnEmptyQueueIsNoop(t *testing.T) {
	d := NewEventDispatcher[string, int]()
	q := NewEventQueue[string, int](d)
	q.Process() // must not panic
}

func TestEventQueueProcessOneDrainsSingleCell(t *testing.T) {
	d := NewEventDispatcher[string, int]()
	q := NewEventQueue[string, int](d)

	var got []int
	d.AppendListener("x", func(v int) { got = append(got, v) })

	q.Enqueue("x", 1)
	q.Enqueue("x", 2)

	if !q.ProcessOne() {
		t.Fatal("expected ProcessOne to report true")
	}
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected [1], got %v", got)
	}
	if !q.ProcessOne() {
		t.Fatal("expected second ProcessOne to report true")
	}
	if q.ProcessOne() {
		t.Fatal("expected third ProcessOne to report false on empty queue")
	}
	if len(got) != 2 || got[1] != 2 {
		t.Fatalf("expected [1 2], got %v", got)
	}
}

func TestEventQueueProcessQueueWithBypassesDispatcher(t *testing.T) {
	d := NewEventDispatcher[string, int]()
	q := NewEventQueue[string, int](d)

	dispatched := false
	d.AppendListener("x", func(int) { dispatched = true })

	q.Enqueue("x", 1)
	q.Enqueue("y", 2)

	var visited []string
	ok := q.ProcessQueueWith(func(key string, payload int) {
		visited = append(visited, key)
	})

	if !ok {
		t.Fatal("expected ProcessQueueWith to report true")
	}
	if dispatched {
		t.Fatal("ProcessQueueWith must not invoke the dispatcher")
	}
	if len(visited) != 2 || visited[0] != "x" || visited[1] != "y" {
		t.Fatalf("unexpected visit order: %v", visited)
	}
}

func TestEventQueueProcessOneWithReportsEmpty(t *testing.T) {
	d := NewEventDispatcher[string, int]()
	q := NewEventQueue[string, int](d)

	if q.ProcessOneWith(func(string, int) {}) {
		t.Fatal("expected false on empty queue")
	}
}

// TestEventQueueVisitorParityWithDispatcherProcess checks that
// ProcessQueueWith observes the same (key, payload) pairs, in the same
// order, as an equivalent Process() run through the dispatcher.
func TestEventQueueVisitorParityWithDispatcherProcess(t *testing.T) {
	seed := func() (*EventDispatcher[string, int], *EventQueue[string, int]) {
		d := NewEventDispatcher[string, int]()
		q := NewEventQueue[string, int](d)
		for i := 0; i < 20; i++ {
			q.Enqueue("k", i)
		}
		return d, q
	}

	dDisp, qDisp := seed()
	var viaDispatch []int
	dDisp.AppendListener("k", func(v int) { viaDispatch = append(viaDispatch, v) })
	qDisp.Process()

	_, qVisit := seed()
	var viaVisitor []int
	qVisit.ProcessQueueWith(func(_ string, v int) { viaVisitor = append(viaVisitor, v) })

	if len(viaDispatch) != len(viaVisitor) {
		t.Fatalf("length mismatch: dispatch=%v visitor=%v", viaDispatch, viaVisitor)
	}
	for i := range viaDispatch {
		if viaDispatch[i] != viaVisitor[i] {
			t.Fatalf("mismatch at %d: dispatch=%v visitor=%v", i, viaDispatch, viaVisitor)
		}
	}
}

func TestEventQueuePanicDuringDrainReturnsRemainderToFreeList(t *testing.T) {
	d := NewEventDispatcher[string, int]()
	q := NewEventQueue[string, int](d, WithQueueList(4))

	d.AppendListener("boom", func(int) { panic("kaboom") })
	q.Enqueue("boom", 1)
	q.Enqueue("boom", 2)

	func() {
		defer func() { recover() }()
		q.Process()
	}()

	if q.Pending() != 0 {
		t.Fatalf("expected work counter to reach 0 after the panicking drain, got %d", q.Pending())
	}

	// The pool-backed cells from the aborted drain must be reusable: a
	// fresh enqueue/process pass should succeed and reuse a deallocated
	// slot rather than requiring a new slab.
	slabsBefore := q.pool.SlabCount()
	d.AppendListener("ok", func(int) {})
	if err := q.Enqueue("ok", 3); err != nil {
		t.Fatalf("Enqueue after panic returned error: %v", err)
	}
	q.Process()

	if got := q.pool.SlabCount(); got != slabsBefore {
		t.Fatalf("expected reused slot with no new slab, slab count went from %d to %d", slabsBefore, got)
	}
}

func TestEventQueueWaitForTimesOutWhenEmpty(t *testing.T) {
	d := NewEventDispatcher[string, int]()
	q := NewEventQueue[string, int](d)

	start := time.Now()
	if q.WaitFor(20 * time.Millisecond) {
		t.Fatal("expected WaitFor to report false on an empty queue")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("WaitFor returned before its timeout elapsed")
	}
}

func TestEventQueueWaitForWakesOnEnqueue(t *testing.T) {
	d := NewEventDispatcher[string, int]()
	q := NewEventQueue[string, int](d)

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue("x", 1)
	}()

	if !q.WaitFor(time.Second) {
		t.Fatal("expected WaitFor to report true once work is enqueued")
	}
}

func TestEventQueueWaitBlocksUntilWork(t *testing.T) {
	d := NewEventDispatcher[string, int]()
	q := NewEventQueue[string, int](d)

	done := make(chan struct{})
	go func() {
		q.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before any work was enqueued")
	case <-time.After(20 * time.Millisecond):
	}

	q.Enqueue("x", 1)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after an enqueue")
	}
}

func TestEventQueuePoolBackedAndPlainCellsBehaveIdentically(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []Option
	}{
		{"plain", nil},
		{"pool", []Option{WithQueueList(16)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := NewEventDispatcher[string, int](tc.opts...)
			q := NewEventQueue[string, int](d, tc.opts...)

			var got []int
			d.AppendListener("x", func(v int) { got = append(got, v) })

			for i := 0; i < 10; i++ {
				if err := q.Enqueue("x", i); err != nil {
					t.Fatalf("Enqueue returned error: %v", err)
				}
			}
			q.Process()

			if len(got) != 10 {
				t.Fatalf("expected 10 dispatches, got %d", len(got))
			}
		})
	}
}

func TestEventQueueConcurrentMultiProducerSingleConsumer(t *testing.T) {
	const producers = 2
	const perProducer = 4096

	d := NewEventDispatcher[int, int]()
	q := NewEventQueue[int, int](d, WithQueueList(512))

	var mu sync.Mutex
	count := 0
	d.AppendListener(0, func(int) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.Enqueue(0, i); err != nil {
					t.Errorf("Enqueue returned error: %v", err)
					return
				}
			}
		}()
	}

	stop := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case <-stop:
				q.Process()
				return
			default:
			}
			if q.WaitFor(10 * time.Millisecond) {
				q.Process()
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-drained

	mu.Lock()
	defer mu.Unlock()
	want := producers * perProducer
	if count != want {
		t.Fatalf("expected %d dispatches, got %d", want, count)
	}
}

func TestEventQueueConcurrentHighFanoutProducers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping high fan-out producer stress test in -short mode")
	}

	const producers = 256
	const perProducer = 4096

	d := NewEventDispatcher[int, int]()
	q := NewEventQueue[int, int](d, WithQueueList(DefaultSlabCapacity))

	var count int64
	var mu sync.Mutex
	d.AppendListener(0, func(int) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.Enqueue(0, i); err != nil {
					t.Errorf("Enqueue returned error: %v", err)
					return
				}
			}
		}()
	}

	stop := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case <-stop:
				q.Process()
				return
			default:
			}
			if q.WaitFor(10 * time.Millisecond) {
				q.Process()
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-drained

	mu.Lock()
	defer mu.Unlock()
	want := int64(producers * perProducer)
	if count != want {
		t.Fatalf("expected %d dispatches, got %d", want, count)
	}
}
