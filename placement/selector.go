// Package placement decides which backing bucket receives the next
// upload, based on best-effort usage counters kept in the catalog.
package placement

import (
	"fmt"

	"github.com/op/go-logging"
	"github.com/tunevault/library-services/models/catalog"
	"github.com/tunevault/library-services/models/service"
)

// UsageSource reads and writes per-account usage counters. The catalog
// client satisfies this; tests use an in-memory fake.
type UsageSource interface {
	UsageStats() ([]*catalog.BucketUsageStat, error)
	SaveUsageStat(stat *catalog.BucketUsageStat) error
}

// BucketChoice is the outcome of one placement decision.
// CapacityExhausted means every bucket is at or over threshold and the
// choice is a degraded overflow: the upload still proceeds, but
// operators need to provision a new bucket.
type BucketChoice struct {
	Bucket            *service.StorageBucket
	CapacityExhausted bool
}

type Selector struct {
	// Buckets are the candidate buckets in priority order:
	// account 1 first, then 2, and so on.
	Buckets []*service.StorageBucket
	Usage   UsageSource
	Logger  *logging.Logger
}

func NewSelector(buckets []*service.StorageBucket, usage UsageSource, logger *logging.Logger) *Selector {
	return &Selector{
		Buckets: buckets,
		Usage:   usage,
		Logger:  logger,
	}
}

// SelectBucket returns the first bucket whose usage is below its
// threshold. If every bucket is at or over threshold, it returns the
// last candidate with CapacityExhausted set: uploads must not be
// blocked outright by a full fleet. If usage stats can't be read at
// all, it returns the first configured bucket, because blocking
// uploads on a monitoring outage is worse than a placement mistake.
func (s *Selector) SelectBucket() *BucketChoice {
	if len(s.Buckets) == 0 {
		return &BucketChoice{}
	}
	stats, err := s.Usage.UsageStats()
	if err != nil {
		s.Logger.Warningf("Could not read bucket usage stats, defaulting to account %d: %v",
			s.Buckets[0].AccountNumber, err)
		return &BucketChoice{Bucket: s.Buckets[0]}
	}
	statsByAccount := make(map[int]*catalog.BucketUsageStat, len(stats))
	for _, stat := range stats {
		statsByAccount[stat.AccountNumber] = stat
	}
	for _, bucket := range s.Buckets {
		if hasCapacity(bucket, statsByAccount[bucket.AccountNumber]) {
			return &BucketChoice{Bucket: bucket}
		}
	}
	last := s.Buckets[len(s.Buckets)-1]
	s.Logger.Warningf("All %d buckets are at capacity; overflowing into account %d",
		len(s.Buckets), last.AccountNumber)
	return &BucketChoice{Bucket: last, CapacityExhausted: true}
}

// hasCapacity prefers the catalog stat's threshold, falling back to
// the bucket's configured threshold when the stat row carries none.
// A missing stat row means nothing has been recorded against the
// bucket yet, and a bucket with no threshold at all is unbounded.
func hasCapacity(bucket *service.StorageBucket, stat *catalog.BucketUsageStat) bool {
	if stat == nil {
		return true
	}
	if stat.ThresholdBytes > 0 {
		return stat.HasCapacity()
	}
	if bucket.ThresholdBytes > 0 {
		return stat.UsageBytes < bucket.ThresholdBytes
	}
	return true
}

// RecordUsageDelta adjusts the usage counter for an account after an
// upload (positive delta) or delete (negative delta) this system
// performed. The counter clamps at zero. It is advisory only: it feeds
// placement, never content decisions, so drift is tolerated rather
// than treated as a correctness bug.
func (s *Selector) RecordUsageDelta(accountNumber int, deltaBytes int64) error {
	stats, err := s.Usage.UsageStats()
	if err != nil {
		return fmt.Errorf("reading usage stats for account %d: %v", accountNumber, err)
	}
	var stat *catalog.BucketUsageStat
	for _, candidate := range stats {
		if candidate.AccountNumber == accountNumber {
			stat = candidate
			break
		}
	}
	if stat == nil {
		return fmt.Errorf("no usage stat for account %d", accountNumber)
	}
	stat.UsageBytes += deltaBytes
	if stat.UsageBytes < 0 {
		stat.UsageBytes = 0
	}
	return s.Usage.SaveUsageStat(stat)
}
