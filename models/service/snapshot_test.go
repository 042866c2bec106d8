package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tunevault/library-services/models/service"
)

func TestReconciliationSnapshotJSON(t *testing.T) {
	snap := service.NewReconciliationSnapshot("session-1", service.UserScope("user-a"))
	snap.OrphanKeys = []string{"a.mp3", "b.mp3"}
	snap.BrokenRecordIDs = []int64{4, 5}

	jsonData, err := snap.ToJSON()
	assert.Nil(t, err)

	restored, err := service.ReconciliationSnapshotFromJSON(jsonData)
	assert.Nil(t, err)
	assert.Equal(t, snap.SessionID, restored.SessionID)
	assert.Equal(t, snap.Scope, restored.Scope)
	assert.Equal(t, snap.OrphanKeys, restored.OrphanKeys)
	assert.Equal(t, snap.BrokenRecordIDs, restored.BrokenRecordIDs)
	assert.True(t, restored.Age() < time.Minute)
}
