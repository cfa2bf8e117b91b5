package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/layout"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/notify"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/worklog"
)

type worklogStartRequest struct {
	Coordinate layout.Coordinate `json:"coordinate"`
	WorkerID   string            `json:"worker_id"`
	Status     string            `json:"status"`
}

type worklogStopRequest struct {
	Coordinate layout.Coordinate `json:"coordinate"`
}

func (s *Server) handleWorklogStart(c *gin.Context) {
	var req worklogStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, "invalid worklog request: "+err.Error())
		return
	}
	if err := req.Coordinate.Validate(); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if req.WorkerID == "" {
		respondErr(c, http.StatusBadRequest, codeValidation, "worker_id is required")
		return
	}
	log, err := worklog.Start(s.db, req.Coordinate, req.WorkerID, req.Status)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	s.bus.Publish(notify.Event{Table: "work_logs", Op: notify.OpInsert, At: time.Now()})
	respondOK(c, "work session started", log)
}

func (s *Server) handleWorklogStop(c *gin.Context) {
	var req worklogStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, "invalid worklog request: "+err.Error())
		return
	}
	if err := req.Coordinate.Validate(); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	log, err := worklog.Stop(s.db, req.Coordinate)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	s.bus.Publish(notify.Event{Table: "work_logs", Op: notify.OpUpdate, At: time.Now()})
	respondOK(c, "work session closed", log)
}

func (s *Server) handleWorklogHistory(c *gin.Context) {
	coord := layout.Coordinate{
		LineID:    c.Query("line_id"),
		ProcessID: c.Query("process_id"),
		Shift:     models.Shift(c.Query("shift")),
	}
	if err := coord.Validate(); err != nil {
		respondErr(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := worklog.History(s.db, coord, limit)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondOK(c, "work sessions", logs)
}
