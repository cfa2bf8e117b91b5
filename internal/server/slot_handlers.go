package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/layout"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/notify"
)

type swapRequest struct {
	Source layout.Coordinate `json:"source"`
	Target layout.Coordinate `json:"target"`
}

type assignRequest struct {
	Coordinate layout.Coordinate `json:"coordinate"`
	WorkerID   string            `json:"worker_id"`
	Force      bool              `json:"force"`
}

type unassignRequest struct {
	Coordinate layout.Coordinate `json:"coordinate"`
}

func (s *Server) publishSlots() {
	s.bus.Publish(notify.Event{Table: "shift_slots", Op: notify.OpUpdate, At: time.Now()})
}

// handleSwap exchanges workers between two shift cells. Swaps run outside
// the edit lease; anyone admitted by the role gate may call this.
func (s *Server) handleSwap(c *gin.Context) {
	var req swapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, "invalid swap request: "+err.Error())
		return
	}
	if err := req.Source.Validate(); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if err := req.Target.Validate(); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if err := layout.Swap(s.db, req.Source, req.Target); err != nil {
		respondDomainErr(c, err)
		return
	}
	s.publishSlots()
	respondOK(c, "slots swapped", nil)
}

func (s *Server) handleAssign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, "invalid assign request: "+err.Error())
		return
	}
	if req.WorkerID == "" {
		respondErr(c, http.StatusBadRequest, codeValidation, "worker_id is required")
		return
	}
	if err := req.Coordinate.Validate(); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if err := layout.Assign(s.db, req.Coordinate, req.WorkerID, req.Force); err != nil {
		respondDomainErr(c, err)
		return
	}
	s.publishSlots()
	respondOK(c, "worker assigned", nil)
}

func (s *Server) handleUnassign(c *gin.Context) {
	var req unassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, "invalid unassign request: "+err.Error())
		return
	}
	if err := req.Coordinate.Validate(); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if err := layout.Unassign(s.db, req.Coordinate); err != nil {
		respondDomainErr(c, err)
		return
	}
	s.publishSlots()
	respondOK(c, "worker unassigned", nil)
}
