package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/lease"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/notify"
)

func (s *Server) handleLeaseStatus(c *gin.Context) {
	ident := callerIdentity(c)
	st, err := lease.StatusFor(s.db, lease.ResourceLayout, ident.ID, s.leaseTimeout)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondOK(c, "lease status", st)
}

func (s *Server) handleLeaseAcquire(c *gin.Context) {
	ident := callerIdentity(c)
	l, err := lease.Acquire(s.db, lease.ResourceLayout, ident.ID, ident.Name, s.leaseTimeout)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	s.bus.Publish(notify.Event{Table: "edit_leases", Op: notify.OpInsert, Key: lease.ResourceLayout, At: time.Now()})
	respondOK(c, "lease acquired", l)
}

func (s *Server) handleLeaseRelease(c *gin.Context) {
	ident := callerIdentity(c)
	if err := lease.Release(s.db, lease.ResourceLayout, ident.ID); err != nil {
		respondDomainErr(c, err)
		return
	}
	s.bus.Publish(notify.Event{Table: "edit_leases", Op: notify.OpDelete, Key: lease.ResourceLayout, At: time.Now()})
	respondOK(c, "lease released", nil)
}

func (s *Server) handleLeaseRenew(c *gin.Context) {
	ident := callerIdentity(c)
	if err := lease.Renew(s.db, lease.ResourceLayout, ident.ID); err != nil {
		respondDomainErr(c, err)
		return
	}
	respondOK(c, "lease renewed", nil)
}
