package relay

import (
	"sync"
	"testing"
)

func TestSpinLockExcludes(t *testing.T) {
	var lock SpinLock
	var counter int
	var wg sync.WaitGroup

	const goroutines = 32
	const increments = 1000

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				lock.Lock()
				counter++
				lock.Unlock()
			}
		}()
	}
	wg.Wait()

	if counter != goroutines*increments {
		t.Errorf("expected %d, got %d", goroutines*increments, counter)
	}
}

func TestSpinLockTryLock(t *testing.T) {
	var lock SpinLock

	if !lock.TryLock() {
		t.Fatal("expected first TryLock to succeed")
	}
	if lock.TryLock() {
		t.Fatal("expected second TryLock to fail while held")
	}
	lock.Unlock()
	if !lock.TryLock() {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	lock.Unlock()
}

func TestSpinLockUncontended(t *testing.T) {
	var lock SpinLock
	lock.Lock()
	lock.Unlock()
	lock.Lock()
	lock.Unlock()
}
