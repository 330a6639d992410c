package idgen

import (
	"strings"
	"sync"
	"testing"
)

func TestNewSnowflakeRejectsOutOfRangeWorker(t *testing.T) {
	if _, err := NewSnowflake(-1); err == nil {
		t.Fatal("expected error for negative worker id")
	}
	if _, err := NewSnowflake(maxWorkerID + 1); err == nil {
		t.Fatal("expected error for worker id above range")
	}
}

func TestGenerateIsUniqueUnderConcurrency(t *testing.T) {
	s, err := NewSnowflake(7)
	if err != nil {
		t.Fatalf("new snowflake: %v", err)
	}

	const workers = 8
	const perWorker = 2000

	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				local = append(local, s.Generate())
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d unique ids, got %d", workers*perWorker, len(seen))
	}
}

func TestBusinessNumbersCarryPrefix(t *testing.T) {
	cases := map[string]func() string{
		PrefixTransaction: GenerateTransactionNo,
		PrefixCharge:      GenerateChargeNo,
		PrefixWithdraw:    GenerateWithdrawNo,
	}
	for prefix, gen := range cases {
		no := gen()
		if !strings.HasPrefix(no, prefix) {
			t.Errorf("expected %q to start with %s", no, prefix)
		}
		if gen() == no {
			t.Errorf("expected consecutive %s numbers to differ", prefix)
		}
	}
}
