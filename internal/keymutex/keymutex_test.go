package keymutex

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLockSerializesSameKey(t *testing.T) {
	m := New()
	key := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock(key)
			counter++
			m.Unlock(key)
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	m := New()
	a, b := uuid.New(), uuid.New()

	m.Lock(a)
	defer m.Unlock(a)

	done := make(chan struct{})
	go func() {
		m.Lock(b)
		m.Unlock(b)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on unrelated key blocked")
	}
}

func TestEntriesDroppedWhenReleased(t *testing.T) {
	m := New()
	for i := 0; i < 10; i++ {
		key := uuid.New()
		m.Lock(key)
		m.Unlock(key)
	}

	m.mu.Lock()
	n := len(m.locks)
	m.mu.Unlock()
	if n != 0 {
		t.Errorf("len(locks) = %d, want 0 after all keys released", n)
	}
}

func TestUnlockUnheldKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Unlock of unheld key did not panic")
		}
	}()
	New().Unlock(uuid.New())
}
