package relay

import "testing"

func TestDefaultPolicy(t *testing.T) {
	p := buildPolicy(nil)

	if p.threading != ThreadingMutex {
		t.Errorf("expected default threading to be ThreadingMutex, got %v", p.threading)
	}
	if p.queuePool {
		t.Error("expected default policy to not use the pool-backed queue list")
	}
	if p.queueCapacity != DefaultSlabCapacity {
		t.Errorf("expected default queue capacity %d, got %d", DefaultSlabCapacity, p.queueCapacity)
	}
}

func TestWithThreading(t *testing.T) {
	p := buildPolicy([]Option{WithThreading(ThreadingSpin)})
	if p.threading != ThreadingSpin {
		t.Errorf("expected ThreadingSpin, got %v", p.threading)
	}
}

func TestWithQueueList(t *testing.T) {
	p := buildPolicy([]Option{WithQueueList(256)})
	if !p.queuePool {
		t.Error("expected queuePool to be enabled")
	}
	if p.queueCapacity != 256 {
		t.Errorf("expected capacity 256, got %d", p.queueCapacity)
	}
}

func TestWithQueueListIgnoresNonPositiveCapacity(t *testing.T) {
	p := buildPolicy([]Option{WithQueueList(0)})
	if p.queueCapacity != DefaultSlabCapacity {
		t.Errorf("expected capacity to remain default, got %d", p.queueCapacity)
	}
}

func TestHighPerfBundle(t *testing.T) {
	p := buildPolicy(HighPerf())
	if p.threading != ThreadingSpin {
		t.Errorf("expected HighPerf to select ThreadingSpin, got %v", p.threading)
	}
	if !p.queuePool {
		t.Error("expected HighPerf to select the pool-backed queue list")
	}
	if p.queueCapacity != DefaultSlabCapacity {
		t.Errorf("expected HighPerf capacity %d, got %d", DefaultSlabCapacity, p.queueCapacity)
	}
}

func TestWithMaxSlabs(t *testing.T) {
	p := buildPolicy([]Option{WithMaxSlabs(3)})
	if p.maxSlabs != 3 {
		t.Errorf("expected maxSlabs 3, got %d", p.maxSlabs)
	}
}
