// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordStoreRequest(t *testing.T) {
	before := testutil.ToFloat64(storeRequestsTotal.WithLabelValues("save", "ok"))
	RecordStoreRequest("save", "ok", 20*time.Millisecond)
	RecordStoreRequest("save", "ok", 0)
	assert.Equal(t, before+2, testutil.ToFloat64(storeRequestsTotal.WithLabelValues("save", "ok")))
}

func TestSetBreakerState_OneHot(t *testing.T) {
	SetBreakerState("store", "open")
	assert.Equal(t, 1.0, testutil.ToFloat64(StoreBreakerState.WithLabelValues("store", "open")))
	assert.Equal(t, 0.0, testutil.ToFloat64(StoreBreakerState.WithLabelValues("store", "closed")))

	SetBreakerState("store", "closed")
	assert.Equal(t, 0.0, testutil.ToFloat64(StoreBreakerState.WithLabelValues("store", "open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(StoreBreakerState.WithLabelValues("store", "closed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(StoreBreakerState.WithLabelValues("store", "half-open")))
}

func TestSetPositionStoreBackend_ResetsPrevious(t *testing.T) {
	SetPositionStoreBackend("memory")
	SetPositionStoreBackend("sqlite")
	assert.Equal(t, 1, testutil.CollectAndCount(positionStoreRecords))
	assert.Equal(t, 1.0, testutil.ToFloat64(positionStoreRecords.WithLabelValues("sqlite")))
}

func TestRecordConfigReload(t *testing.T) {
	ok := testutil.ToFloat64(configReloadsTotal.WithLabelValues("success"))
	bad := testutil.ToFloat64(configReloadsTotal.WithLabelValues("failure"))
	RecordConfigReload(true)
	RecordConfigReload(false)
	assert.Equal(t, ok+1, testutil.ToFloat64(configReloadsTotal.WithLabelValues("success")))
	assert.Equal(t, bad+1, testutil.ToFloat64(configReloadsTotal.WithLabelValues("failure")))
}
