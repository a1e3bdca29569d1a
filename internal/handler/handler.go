package handler

import (
	"net/http"
	"time"

	"inventory/pkg/apperror"
	"inventory/pkg/logger"
	"inventory/pkg/response"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// respondError writes err with the status its kind maps to.
func respondError(c *gin.Context, err error) {
	resp := response.FromError(err)
	if resp.StatusCode >= http.StatusInternalServerError {
		logger.Error(c.Request.Context()).Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	_ = c.Error(err)
	c.JSON(resp.StatusCode, resp)
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, apperror.Validation("invalid request payload: "+err.Error()))
}

// parseDate accepts RFC 3339 or a bare local date. A bare end date covers
// the whole day.
func parseDate(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, apperror.Validation("invalid date " + value + ": use YYYY-MM-DD or RFC 3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t, nil
}

// dateRange reads start_date and end_date. Missing values stay nil unless
// required is set.
func dateRange(c *gin.Context, required bool) (*time.Time, *time.Time, error) {
	startStr := c.Query("start_date")
	endStr := c.Query("end_date")
	if required && (startStr == "" || endStr == "") {
		return nil, nil, apperror.Validation("start_date and end_date are required")
	}

	var start, end *time.Time
	if startStr != "" {
		t, err := parseDate(startStr, false)
		if err != nil {
			return nil, nil, err
		}
		start = &t
	}
	if endStr != "" {
		t, err := parseDate(endStr, true)
		if err != nil {
			return nil, nil, err
		}
		end = &t
	}
	return start, end, nil
}
