package cooldown

import (
	"sync"
	"testing"
	"time"
)

func TestAllowWithinWindow(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := base
	tr := New(30 * time.Second)
	tr.now = func() time.Time { return now }

	if !tr.Allow("att:1:STU1001") {
		t.Fatal("first scan denied, want allowed")
	}
	now = base.Add(10 * time.Second)
	if tr.Allow("att:1:STU1001") {
		t.Error("scan inside window allowed, want denied")
	}
	now = base.Add(30 * time.Second)
	if tr.Allow("att:1:STU1001") {
		t.Error("scan exactly at window edge allowed, want denied")
	}
	now = base.Add(31 * time.Second)
	if !tr.Allow("att:1:STU1001") {
		t.Error("scan after window denied, want allowed")
	}
}

func TestDeniedScanDoesNotExtendWindow(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := base
	tr := New(30 * time.Second)
	tr.now = func() time.Time { return now }

	tr.Allow("lab:2:STU1002")
	now = base.Add(29 * time.Second)
	tr.Allow("lab:2:STU1002") // denied, must not refresh the timestamp
	now = base.Add(31 * time.Second)
	if !tr.Allow("lab:2:STU1002") {
		t.Error("scan 31s after the allowed one denied, want allowed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	t.Parallel()

	tr := New(30 * time.Second)
	if !tr.Allow("hostel:STU1001") {
		t.Fatal("first key denied")
	}
	if !tr.Allow("hostel:STU1002") {
		t.Error("second key denied, want independent windows")
	}
}

func TestAllowConcurrent(t *testing.T) {
	t.Parallel()

	tr := New(time.Minute)
	var wg sync.WaitGroup
	allowed := make(chan struct{}, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Allow("att:9:STU1001") {
				allowed <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(allowed)

	n := 0
	for range allowed {
		n++
	}
	if n != 1 {
		t.Errorf("got %d allowed scans, want 1", n)
	}
}
