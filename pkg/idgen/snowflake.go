package idgen

import (
	"fmt"
	"sync"
	"time"
)

// ============================================================================
// Snowflake ID generator
// ============================================================================
//
// Business numbers (transaction no, request no) must be globally unique,
// roughly time ordered for index locality, and must not leak volume.
//
// Layout (64 bits):
//
//   0 - 41 bit timestamp - 10 bit worker id - 12 bit sequence
//   |   |                  |                  |
//   |   |                  |                  +-- sequence within one millisecond (0-4095)
//   |   |                  +-- worker id (0-1023)
//   |   +-- milliseconds since epoch (~69 years)
//   +-- sign bit, always 0
//
// ============================================================================

const (
	epoch          = int64(1704067200000) // 2024-01-01 00:00:00 UTC
	workerIDBits   = 10
	sequenceBits   = 12
	maxWorkerID    = -1 ^ (-1 << workerIDBits)
	maxSequence    = -1 ^ (-1 << sequenceBits)
	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

const (
	PrefixTransaction = "TXN"
	PrefixCharge      = "CHG"
	PrefixWithdraw    = "WDR"
)

// Snowflake is a single-worker snowflake generator.
type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	workerID  int64
	sequence  int64
}

var (
	defaultGenerator *Snowflake
	once             sync.Once
)

// NewSnowflake returns a generator for the given worker id.
func NewSnowflake(workerID int64) (*Snowflake, error) {
	if workerID < 0 || workerID > maxWorkerID {
		return nil, fmt.Errorf("worker id must be within 0-%d, got %d", maxWorkerID, workerID)
	}
	return &Snowflake{workerID: workerID}, nil
}

// Init sets up the default generator. Only the first call has an effect.
func Init(workerID int64) error {
	var err error
	once.Do(func() {
		defaultGenerator, err = NewSnowflake(workerID)
	})
	return err
}

// NextID returns the next id from the default generator, initializing it
// with worker id 1 if Init was never called.
func NextID() int64 {
	_ = Init(1)
	return defaultGenerator.Generate()
}

// Generate returns the next id.
func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			// sequence exhausted, spin until the next millisecond
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	return ((now - epoch) << timestampShift) |
		(s.workerID << workerIDShift) |
		s.sequence
}

// generateNo formats prefix + yyyyMMddHHmmss + the full snowflake id.
// Truncating the id would allow collisions across milliseconds.
func generateNo(prefix string) string {
	id := NextID()
	return fmt.Sprintf("%s%s%d", prefix, time.Now().Format("20060102150405"), id)
}

// GenerateTransactionNo returns a ledger entry number, e.g. TXN20240115143052<id>.
func GenerateTransactionNo() string {
	return generateNo(PrefixTransaction)
}

// GenerateChargeNo returns a charge request number.
func GenerateChargeNo() string {
	return generateNo(PrefixCharge)
}

// GenerateWithdrawNo returns a withdraw request number.
func GenerateWithdrawNo() string {
	return generateNo(PrefixWithdraw)
}
