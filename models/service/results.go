package service

import (
	"github.com/tunevault/library-services/models/catalog"
)

// Each engine operation returns its own result type with fixed fields.
// Counts of succeeded and failed items are always reported together;
// callers never get a bare boolean.

// OrphanScanResult is the outcome of one orphan scan. OrphanKeys holds
// the storage keys that no catalog record's locator resolves to.
type OrphanScanResult struct {
	Scope              Scope    `json:"scope"`
	OrphanKeys         []string `json:"orphan_keys"`
	TotalStoreObjects  int      `json:"total_store_objects"`
	TotalCatalogLinked int      `json:"total_catalog_linked"`
}

// BrokenLinkScanResult is the outcome of one broken-record scan.
// BrokenRecords holds catalog records whose locators are missing,
// malformed, or point at keys absent from the store listing.
type BrokenLinkScanResult struct {
	Scope               Scope           `json:"scope"`
	BrokenRecords       []*catalog.Song `json:"broken_records"`
	TotalStoreObjects   int             `json:"total_store_objects"`
	TotalCatalogRecords int             `json:"total_catalog_records"`
}

// PurgeResult reports a batch delete, against either storage (orphan
// purge) or the catalog (broken-record purge), never both.
type PurgeResult struct {
	DeletedCount int                `json:"deleted_count"`
	Errors       []*ProcessingError `json:"errors,omitempty"`
}

// RectifyResult reports the synthesis of catalog records from orphaned
// storage keys. Keys are processed independently, so RectifiedCount
// plus len(Errors) always equals TotalOrphansFound.
type RectifyResult struct {
	RectifiedCount    int                `json:"rectified_count"`
	TotalOrphansFound int                `json:"total_orphans_found"`
	Errors            []*ProcessingError `json:"errors,omitempty"`
}
