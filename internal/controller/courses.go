package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asverdlov/edushop/internal/util"
)

// (GET /api/courses).
func (ct *Controller) ListCourses(c echo.Context) error {
	courses, err := ct.catalog.ListCourses(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}

// (GET /api/courses/:id). Behind OptionalAuth: logged-in viewers get their
// enrollment state folded in.
func (ct *Controller) GetCourse(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var userID int64
	if claims := CurrentUser(c); claims != nil {
		if userID, err = claims.UserID(); err != nil {
			return err
		}
	}

	view, err := ct.courses.GetCourseView(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// (POST /api/courses/:id/enroll). Idempotent: re-enrolling reports the
// original enrollment time.
func (ct *Controller) Enroll(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	enrolledAt, err := ct.courses.Enroll(c.Request().Context(), userID, courseID)
	if err != nil {
		return err
	}
	if enrolledAt == nil {
		return c.JSON(http.StatusOK, map[string]any{"ok": true, "already": true})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "enrolledAt": enrolledAt})
}

// (DELETE /api/courses/:id/enroll).
func (ct *Controller) Unenroll(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := ct.courses.Unenroll(c.Request().Context(), userID, courseID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// (GET /api/me/enrollments).
func (ct *Controller) ListEnrollments(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	enrollments, err := ct.courses.ListEnrollments(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, enrollments)
}

type progressRequest struct {
	ModuleIdx *int `json:"module_idx"`
	VideoIdx  *int `json:"video_idx"`
}

// (POST /api/courses/:id/progress). Marks one video watched and reports the
// resulting counters.
func (ct *Controller) RecordProgress(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req progressRequest
	if err := c.Bind(&req); err != nil || req.ModuleIdx == nil || req.VideoIdx == nil {
		return util.NewResponseError(http.StatusBadRequest, "module_idx and video_idx required")
	}
	if *req.ModuleIdx < 0 || *req.VideoIdx < 0 {
		return util.NewResponseError(http.StatusBadRequest, "module_idx and video_idx required")
	}

	progress, err := ct.courses.RecordProgress(c.Request().Context(), userID, courseID, *req.ModuleIdx, *req.VideoIdx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ok":           true,
		"watchedCount": progress.WatchedCount,
		"totalVideos":  progress.TotalVideos,
		"completed":    progress.Completed,
	})
}
