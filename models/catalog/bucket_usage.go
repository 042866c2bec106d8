package catalog

import "encoding/json"

// BucketUsageStat tracks best-effort byte usage for one backing-store
// account. The counter is advisory: it feeds placement decisions only,
// never content decisions, so drift from real store usage is tolerated
// and corrected by periodic external reconciliation.
type BucketUsageStat struct {
	AccountNumber  int   `json:"account_number"`
	UsageBytes     int64 `json:"usage_bytes"`
	ThresholdBytes int64 `json:"threshold_bytes"`
}

func BucketUsageStatFromJSON(jsonData []byte) (*BucketUsageStat, error) {
	s := &BucketUsageStat{}
	err := json.Unmarshal(jsonData, s)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *BucketUsageStat) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// HasCapacity returns true if this bucket is below its configured
// threshold and can receive the next upload.
func (s *BucketUsageStat) HasCapacity() bool {
	return s.UsageBytes < s.ThresholdBytes
}
