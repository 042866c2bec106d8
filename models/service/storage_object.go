package service

// StorageObject describes one object in a backing bucket: its key and
// size, plus the account that holds it so repairs can be routed back to
// the right bucket. It exists independently of any catalog record.
type StorageObject struct {
	Key           string `json:"key"`
	Size          int64  `json:"size"`
	AccountNumber int    `json:"account_number"`
}
