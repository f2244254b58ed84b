package server

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// httpPipelineWS streams pipeline status snapshots over a websocket, so the
// dashboard doesn't have to poll while a run is in flight. We send the
// current status on connect, then one message per state change.
func (s *Server) httpPipelineWS(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	c, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Errorf("httpPipelineWS websocket upgrade failed: %v", err)
		return
	}
	defer c.Close()

	updates := s.pipeline.Subscribe()
	defer s.pipeline.Unsubscribe(updates)

	// The read pump exists only to notice the client going away
	closed := make(chan bool)
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				close(closed)
				return
			}
		}
	}()

	if err := c.WriteJSON(s.pipeline.Status()); err != nil {
		return
	}
	for {
		select {
		case status := <-updates:
			if err := c.WriteJSON(status); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
