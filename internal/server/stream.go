// internal/server/stream.go
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "adstrategy-service/internal/common/errors"
	"adstrategy-service/internal/common/metrics"
)

const streamHeartbeat = 15 * time.Second

// handleProjectStream pushes live project list snapshots over SSE. Each
// snapshot event carries its revision; clients drop events whose revision is
// not greater than the last one they applied.
func (s *Server) handleProjectStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.errors.WriteError(w, r, apperrors.NewInternalError(fmt.Errorf("streaming unsupported")))
		return
	}

	snapshots, err := s.store.Watch(r.Context(), ownerID(r))
	if err != nil {
		s.errors.WriteError(w, r, mapStoreErr(err, ""))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.ProjectWatchersActive.Inc()
	defer metrics.ProjectWatchersActive.Dec()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			data, err := json.Marshal(map[string]interface{}{
				"revision": snap.Revision,
				"projects": snap.Projects,
			})
			if err != nil {
				s.logger.WithError(err).Warn("failed to encode snapshot", nil)
				continue
			}
			fmt.Fprintf(w, "event: snapshot\nid: %d\ndata: %s\n\n", snap.Revision, data)
			flusher.Flush()
		}
	}
}
