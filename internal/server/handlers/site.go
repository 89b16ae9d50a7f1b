package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

// Site carries the plant facts request parsing depends on.
type Site struct {
	Lines    []models.LineCode
	Shifts   []models.ShiftCode
	Location *time.Location
}

func (s Site) knownLine(code models.LineCode) bool {
	for _, l := range s.Lines {
		if l == code {
			return true
		}
	}
	return false
}

// shiftParam reads the optional shift query parameter, answering 400 for unknown shifts.
func (s Site) shiftParam(c *gin.Context) (models.ShiftCode, bool) {
	shift := models.ShiftCode(c.Query("shift"))
	if shift == "" {
		return "", true
	}
	for _, known := range s.Shifts {
		if known == shift {
			return shift, true
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "unknown shift"})
	return "", false
}

// dateParam reads the date query parameter, defaulting to today on site.
func (s Site) dateParam(c *gin.Context) (models.CalendarDate, bool) {
	raw := c.Query("date")
	if raw == "" {
		loc := s.Location
		if loc == nil {
			loc = time.Local
		}
		return models.DateOf(time.Now().In(loc)), true
	}
	day, err := models.ParseCalendarDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return models.CalendarDate{}, false
	}
	return day, true
}

// lineParam reads the :line path parameter, answering 404 for lines the site does not run.
func (s Site) lineParam(c *gin.Context) (models.LineCode, bool) {
	line := models.LineCode(c.Param("line"))
	if !s.knownLine(line) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown line"})
		return "", false
	}
	return line, true
}
