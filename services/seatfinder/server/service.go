// Package server exposes the seat-finder service over the JSON API the
// frontend consumes. It holds no search logic of its own: every handler is
// a thin adapter over the service's StartSearch/GetProgress surface.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"seatfinder-backend/lib/sessionstore"
	"seatfinder-backend/lib/timezone"
	"seatfinder-backend/services/seatfinder"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	service *seatfinder.Service
}

func New(service *seatfinder.Service) Handler {
	return Handler{service: service}
}

func (h Handler) Register(e *echo.Echo) {
	e.POST("/api/search", h.Search)
	e.GET("/api/progress/:id", h.Progress)
	e.POST("/api/clear-sessions", h.ClearSessions)
	e.POST("/api/sessions/extend/:id", h.ExtendSession)
	e.GET("/api/export/:id/options", h.ExportOptions)
	e.GET("/api/export/:id/text", h.ExportText)
	e.GET("/api/health", h.Health)
}

type searchRequest struct {
	RollNumber string `json:"rollNumber"`
	Date       string `json:"date"`
}

// the venue endpoints expect day/month/year; the frontend date picker
// sends ISO dates
func normalizeDate(date string) (string, error) {
	if parsed, err := time.Parse("2006-01-02", date); err == nil {
		return parsed.Format("02/01/2006"), nil
	}
	if _, err := time.Parse("02/01/2006", date); err == nil {
		return date, nil
	}
	return "", fmt.Errorf("invalid date format: %q", date)
}

func (h Handler) Search(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Roll number and date are required",
		})
	}

	rollNumber := strings.TrimSpace(req.RollNumber)
	date := strings.TrimSpace(req.Date)
	if rollNumber == "" || date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Roll number and date are required",
		})
	}
	if len(rollNumber) < 10 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Invalid roll number format",
		})
	}

	formattedDate, err := normalizeDate(date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Invalid date format",
		})
	}

	ctx := c.Request().Context()
	sessionID, results, err := h.service.StartSearch(ctx, rollNumber, formattedDate)
	if err != nil {
		slog.ErrorContext(ctx, "search failed", "session_id", sessionID, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success":   false,
			"sessionId": sessionID,
			"message":   "Search failed. Please try again.",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"sessionId": sessionID,
		"message":   "Search completed",
		"results":   results,
	})
}

func (h Handler) Progress(c echo.Context) error {
	ctx := c.Request().Context()
	data, ok, err := h.service.GetProgress(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{
			"status":   "not_found",
			"message":  "Session not found. Please start a new search.",
			"progress": 0,
		})
	}
	return c.JSON(http.StatusOK, data)
}

func (h Handler) ClearSessions(c echo.Context) error {
	err := h.service.ClearAllSessions(c.Request().Context())
	if err != nil {
		slog.Error("session clear failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Error clearing sessions",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "All sessions cleared successfully",
	})
}

func (h Handler) ExtendSession(c echo.Context) error {
	id := c.Param("id")
	ok, err := h.service.ExtendSession(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Session not found. Please search again."})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"message":    "Session extended successfully",
		"session_id": id,
	})
}

func (h Handler) ExportOptions(c echo.Context) error {
	id := c.Param("id")
	data, ok, err := h.service.GetProgress(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Session not found. Please search again to generate fresh results.",
		})
	}
	if data.Status != sessionstore.StatusCompleted {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No results available"})
	}
	if len(data.Results) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No exam seats found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"available_formats": []echo.Map{
			{
				"type":        "whatsapp",
				"name":        "💬 WhatsApp Message",
				"description": "Share exam details via WhatsApp",
				"url":         seatfinder.WhatsAppLink(data.Results),
				"icon":        "📱",
				"external":    true,
			},
			{
				"type":        "text",
				"name":        "📄 Text Document",
				"description": "Download as text file",
				"url":         fmt.Sprintf("/api/export/%s/text", id),
				"icon":        "📋",
			},
		},
	})
}

func (h Handler) ExportText(c echo.Context) error {
	data, ok, err := h.service.GetProgress(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Session not found. Please search again to generate fresh results.",
		})
	}
	if data.Status != sessionstore.StatusCompleted {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No results available"})
	}
	if len(data.Results) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No exam seats found"})
	}

	doc := seatfinder.TextDocument(data.Results)
	c.Response().Header().Set(
		echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, seatfinder.ExportFilename()),
	)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(doc))
}

func (h Handler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	count, err := h.service.ActiveSessions(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"status":    "unhealthy",
			"timestamp": timezone.Now().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":    "healthy",
		"timestamp": timezone.Now().Format(time.RFC3339),
		"environment": echo.Map{
			"description": h.service.Config().Description,
		},
		"sessions": echo.Map{
			"active_sessions": count,
			"session_storage": h.service.StorageBackend(),
		},
	})
}
