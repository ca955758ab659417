package keylock

import (
	"sync"
	"testing"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	l := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock("role-1")
			counter++
			l.Unlock("role-1")
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("expected 100 serialized increments, got %d", counter)
	}
}

func TestKeyLock_IndependentKeysDoNotBlock(t *testing.T) {
	l := New()
	l.Lock("role-1")
	defer l.Unlock("role-1")

	done := make(chan struct{})
	go func() {
		l.Lock("role-2")
		l.Unlock("role-2")
		close(done)
	}()

	<-done // must complete while role-1 is still held
}

func TestKeyLock_EntriesAreReleased(t *testing.T) {
	l := New()
	l.Lock("a")
	l.Unlock("a")
	l.Lock("b")
	l.Unlock("b")

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) != 0 {
		t.Errorf("expected no retained entries, got %d", len(l.entries))
	}
}
