package network

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/tunevault/library-services/models/service"
)

// RedisClient holds interim reconciliation state: the snapshot from the
// most recent scan in each admin session. Snapshots expire on their own
// so a forgotten modal can't feed week-old keys into a purge.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(address, password string, db int) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *RedisClient) Ping() (string, error) {
	return c.client.Ping().Result()
}

func snapshotKey(sessionID string) string {
	return fmt.Sprintf("reconciliation:%s", sessionID)
}

// SnapshotSave stores the scan snapshot for a session, replacing any
// prior one. Param maxAge sets the expiration; zero means no expiry.
func (c *RedisClient) SnapshotSave(snap *service.ReconciliationSnapshot, maxAge time.Duration) error {
	jsonData, err := snap.ToJSON()
	if err != nil {
		return err
	}
	_, err = c.client.Set(snapshotKey(snap.SessionID), jsonData, maxAge).Result()
	return err
}

// SnapshotGet returns the stored snapshot for a session, or an error
// if none exists (including one that has expired).
func (c *RedisClient) SnapshotGet(sessionID string) (*service.ReconciliationSnapshot, error) {
	data, err := c.client.Get(snapshotKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("SnapshotGet (%s): %s", sessionID, err.Error())
	}
	return service.ReconciliationSnapshotFromJSON([]byte(data))
}

// SnapshotDelete removes a session's snapshot. Called after the
// snapshot's repair action has run, so it can't be replayed.
func (c *RedisClient) SnapshotDelete(sessionID string) error {
	_, err := c.client.Del(snapshotKey(sessionID)).Result()
	return err
}
