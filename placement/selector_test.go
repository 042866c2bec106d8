package placement_test

import (
	"fmt"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunevault/library-services/models/catalog"
	"github.com/tunevault/library-services/models/service"
	"github.com/tunevault/library-services/placement"
)

type fakeUsageSource struct {
	stats    []*catalog.BucketUsageStat
	statsErr error
	saved    []*catalog.BucketUsageStat
}

func (f *fakeUsageSource) UsageStats() ([]*catalog.BucketUsageStat, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeUsageSource) SaveUsageStat(stat *catalog.BucketUsageStat) error {
	f.saved = append(f.saved, stat)
	return nil
}

const gigabyte = int64(1024 * 1024 * 1024)

func testBuckets() []*service.StorageBucket {
	return []*service.StorageBucket{
		{
			AccountNumber:  1,
			Bucket:         "tunevault-primary",
			PublicBaseURL:  "https://media-1.tunevault.net",
			ThresholdBytes: 99 * gigabyte / 10, // 9.9 GB
		},
		{
			AccountNumber:  2,
			Bucket:         "tunevault-overflow",
			PublicBaseURL:  "https://media-2.tunevault.net",
			ThresholdBytes: 99 * gigabyte / 10,
		},
	}
}

func newSelector(usage *fakeUsageSource) *placement.Selector {
	return placement.NewSelector(testBuckets(), usage, logging.MustGetLogger("test"))
}

func TestSelectBucketUnderThreshold(t *testing.T) {
	// 9.8 GB used against a 9.9 GB threshold: bucket 1 still has room.
	usage := &fakeUsageSource{
		stats: []*catalog.BucketUsageStat{
			{AccountNumber: 1, UsageBytes: 98 * gigabyte / 10, ThresholdBytes: 99 * gigabyte / 10},
			{AccountNumber: 2, UsageBytes: 0, ThresholdBytes: 99 * gigabyte / 10},
		},
	}
	choice := newSelector(usage).SelectBucket()
	require.NotNil(t, choice.Bucket)
	assert.Equal(t, 1, choice.Bucket.AccountNumber)
	assert.False(t, choice.CapacityExhausted)
}

func TestSelectBucketOverThreshold(t *testing.T) {
	// 9.95 GB used: bucket 1 is over, so bucket 2 gets the upload.
	usage := &fakeUsageSource{
		stats: []*catalog.BucketUsageStat{
			{AccountNumber: 1, UsageBytes: 995 * gigabyte / 100, ThresholdBytes: 99 * gigabyte / 10},
			{AccountNumber: 2, UsageBytes: 0, ThresholdBytes: 99 * gigabyte / 10},
		},
	}
	choice := newSelector(usage).SelectBucket()
	require.NotNil(t, choice.Bucket)
	assert.Equal(t, 2, choice.Bucket.AccountNumber)
	assert.False(t, choice.CapacityExhausted)
}

func TestSelectBucketAllFull(t *testing.T) {
	usage := &fakeUsageSource{
		stats: []*catalog.BucketUsageStat{
			{AccountNumber: 1, UsageBytes: 10 * gigabyte, ThresholdBytes: 99 * gigabyte / 10},
			{AccountNumber: 2, UsageBytes: 10 * gigabyte, ThresholdBytes: 99 * gigabyte / 10},
		},
	}
	choice := newSelector(usage).SelectBucket()
	require.NotNil(t, choice.Bucket)
	assert.Equal(t, 2, choice.Bucket.AccountNumber)
	assert.True(t, choice.CapacityExhausted)
}

func TestSelectBucketFailsOpen(t *testing.T) {
	// Stats unavailable: uploads still go somewhere.
	usage := &fakeUsageSource{statsErr: fmt.Errorf("catalog is down")}
	choice := newSelector(usage).SelectBucket()
	require.NotNil(t, choice.Bucket)
	assert.Equal(t, 1, choice.Bucket.AccountNumber)
	assert.False(t, choice.CapacityExhausted)
}

func TestSelectBucketMissingStat(t *testing.T) {
	// No stat row for an account means we assume it has capacity.
	usage := &fakeUsageSource{stats: []*catalog.BucketUsageStat{}}
	choice := newSelector(usage).SelectBucket()
	require.NotNil(t, choice.Bucket)
	assert.Equal(t, 1, choice.Bucket.AccountNumber)
}

func TestSelectBucketConfiguredThresholdFallback(t *testing.T) {
	// Account 1's stat row carries no threshold of its own, so the
	// bucket's configured 9.9 GB threshold applies and 10 GB of usage
	// pushes the upload to account 2.
	usage := &fakeUsageSource{
		stats: []*catalog.BucketUsageStat{
			{AccountNumber: 1, UsageBytes: 10 * gigabyte, ThresholdBytes: 0},
			{AccountNumber: 2, UsageBytes: 0, ThresholdBytes: 99 * gigabyte / 10},
		},
	}
	choice := newSelector(usage).SelectBucket()
	require.NotNil(t, choice.Bucket)
	assert.Equal(t, 2, choice.Bucket.AccountNumber)
	assert.False(t, choice.CapacityExhausted)
}

func TestRecordUsageDelta(t *testing.T) {
	usage := &fakeUsageSource{
		stats: []*catalog.BucketUsageStat{
			{AccountNumber: 1, UsageBytes: 1000, ThresholdBytes: 99 * gigabyte / 10},
		},
	}
	selector := newSelector(usage)

	err := selector.RecordUsageDelta(1, 500)
	require.Nil(t, err)
	require.Equal(t, 1, len(usage.saved))
	assert.Equal(t, int64(1500), usage.saved[0].UsageBytes)

	// Deletes larger than the recorded usage clamp at zero instead of
	// going negative.
	err = selector.RecordUsageDelta(1, -5000)
	require.Nil(t, err)
	require.Equal(t, 2, len(usage.saved))
	assert.Equal(t, int64(0), usage.saved[1].UsageBytes)

	err = selector.RecordUsageDelta(99, 500)
	assert.NotNil(t, err)
}
