package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/layout"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/lease"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/notify"
)

func (s *Server) handleGetLayout(c *gin.Context) {
	snap, err := layout.Load(s.db)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondOK(c, "layout", snap)
}

// handleCommit applies a structural change set. The caller must hold the
// layout lease; a buffered edit from an editor whose lease expired is
// rejected rather than silently applied.
func (s *Server) handleCommit(c *gin.Context) {
	ident := callerIdentity(c)

	var cs layout.ChangeSet
	if err := c.ShouldBindJSON(&cs); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, "invalid change set: "+err.Error())
		return
	}
	if err := cs.Validate(); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	st, err := lease.StatusFor(s.db, lease.ResourceLayout, ident.ID, s.leaseTimeout)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	if st.State != lease.StateEditingSelf {
		if st.State == lease.StateLockedByOther {
			respondErr(c, http.StatusConflict, codeLeaseHeld, "layout is being edited by "+st.OwnerName)
		} else {
			respondErr(c, http.StatusConflict, codeLeaseLost, "edit lease is not held; re-acquire before committing")
		}
		return
	}

	result, err := layout.Commit(s.db, &cs)
	if err != nil {
		respondDomainErr(c, err)
		return
	}

	s.publishCommit(&cs)
	respondOK(c, "layout committed", result)
}

// publishCommit emits one bus event per table the change set touched.
func (s *Server) publishCommit(cs *layout.ChangeSet) {
	now := time.Now()
	if len(cs.CreateLines) > 0 || len(cs.UpdateLines) > 0 || len(cs.DeleteLineIDs) > 0 {
		s.bus.Publish(notify.Event{Table: "lines", Op: notify.OpUpdate, At: now})
	}
	if len(cs.CreateProcesses) > 0 || len(cs.UpdateProcesses) > 0 || len(cs.DeleteProcessIDs) > 0 ||
		len(cs.DeleteLineIDs) > 0 {
		s.bus.Publish(notify.Event{Table: "processes", Op: notify.OpUpdate, At: now})
	}
	if len(cs.UpdateSlots) > 0 || len(cs.CreateProcesses) > 0 || len(cs.DeleteProcessIDs) > 0 ||
		len(cs.DeleteLineIDs) > 0 {
		s.bus.Publish(notify.Event{Table: "shift_slots", Op: notify.OpUpdate, At: now})
	}
}
