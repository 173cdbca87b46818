package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seadonggyun4/truthound-dashboard-sub010/lineage"
)

func testBatch() lineage.EventBatch {
	return lineage.EventBatch{
		Events: []lineage.RunEvent{
			{
				EventType: lineage.EventTypeStart,
				EventTime: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
				Run:       lineage.OLRun{RunID: "run-1"},
				Job:       lineage.OLJob{Namespace: "truthound://lineage", Name: "lineage_graph"},
				Inputs:    []lineage.OLDataset{{Namespace: "postgres://truthound", Name: "raw_events"}},
				Outputs:   []lineage.OLDataset{},
			},
		},
		TotalEvents:   1,
		TotalDatasets: 1,
		TotalJobs:     1,
	}
}

func TestDispatcherPublish(t *testing.T) {
	received := make(chan lineage.EventBatch, 1)
	headers := make(chan http.Header, 1)

	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch lineage.EventBatch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		received <- batch
		headers <- r.Header
		w.WriteHeader(http.StatusOK)
	}))
	defer receiver.Close()

	dispatcher := NewDispatcher([]string{receiver.URL}, map[string]string{"X-Api-Key": "secret"})
	dispatcher.Publish(testBatch())

	select {
	case batch := <-received:
		assert.Equal(t, 1, batch.TotalEvents)
		require.Len(t, batch.Events, 1)
		assert.Equal(t, "run-1", batch.Events[0].Run.RunID)
	case <-time.After(2 * time.Second):
		t.Fatal("receiver did not get the event batch in time")
	}

	hdr := <-headers
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
	assert.Equal(t, "secret", hdr.Get("X-Api-Key"))
}

func TestDispatcherReceiverFailureIsSwallowed(t *testing.T) {
	hit := make(chan struct{}, 1)
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit <- struct{}{}
		http.Error(w, "catalog on fire", http.StatusInternalServerError)
	}))
	defer receiver.Close()

	dispatcher := NewDispatcher([]string{receiver.URL}, nil)
	// Must not panic or block the caller.
	dispatcher.Publish(testBatch())

	select {
	case <-hit:
	case <-time.After(2 * time.Second):
		t.Fatal("receiver was never called")
	}
}

func TestDispatcherNoReceivers(t *testing.T) {
	dispatcher := NewDispatcher(nil, nil)
	dispatcher.Publish(testBatch()) // no-op
}
