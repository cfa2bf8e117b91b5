package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/layout"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/lease"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/worklog"
)

// Machine-readable error codes carried in the failure envelope.
const (
	codeValidation   = "validation"
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeNotFound     = "not_found"
	codeLeaseHeld    = "lease_held"
	codeLeaseLost    = "lease_lost"
	codeOccupied     = "occupied"
	codeWorklogOpen  = "worklog_open"
	codeInternal     = "internal"
)

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func respondErr(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"code":    code,
		"message": message,
	})
}

// respondDomainErr translates errors surfaced by the domain packages into
// the failure envelope. Unknown errors map to a 500.
func respondDomainErr(c *gin.Context, err error) {
	var held *lease.HeldError
	if errors.As(err, &held) {
		respondErr(c, http.StatusConflict, codeLeaseHeld, held.Error())
		return
	}
	if errors.Is(err, lease.ErrNotHeld) {
		respondErr(c, http.StatusConflict, codeLeaseLost, err.Error())
		return
	}
	var notFound *layout.NotFoundError
	if errors.As(err, &notFound) {
		respondErr(c, http.StatusNotFound, codeNotFound, notFound.Error())
		return
	}
	var occupied *layout.OccupiedElsewhereError
	if errors.As(err, &occupied) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"code":    codeOccupied,
			"message": occupied.Error(),
			"data": gin.H{
				"worker_id": occupied.WorkerID,
				"location":  occupied.Location,
			},
		})
		return
	}
	var open *worklog.OpenLogError
	if errors.As(err, &open) {
		respondErr(c, http.StatusConflict, codeWorklogOpen, open.Error())
		return
	}
	if errors.Is(err, layout.ErrIdenticalCoordinates) {
		respondErr(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	respondErr(c, http.StatusInternalServerError, codeInternal, err.Error())
}
