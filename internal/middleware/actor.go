package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/response"
)

const (
	// ContextSchoolKey holds the tenant school ID for the request.
	ContextSchoolKey = "actor_school_id"
	// ContextTeacherKey holds the acting teacher ID, empty for admins.
	ContextTeacherKey = "actor_teacher_id"

	// SchoolHeader identifies the tenant every request acts on.
	SchoolHeader = "X-School-ID"
	// TeacherHeader identifies the acting teacher. Absent means the
	// request acts with admin authority.
	TeacherHeader = "X-Teacher-ID"
)

// Actor resolves the tenant and acting teacher from request headers and
// stores them on the context. Requests without a school ID are rejected.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		schoolID := strings.TrimSpace(c.GetHeader(SchoolHeader))
		if schoolID == "" {
			response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "missing X-School-ID header"))
			c.Abort()
			return
		}
		c.Set(ContextSchoolKey, schoolID)
		c.Set(ContextTeacherKey, strings.TrimSpace(c.GetHeader(TeacherHeader)))
		c.Next()
	}
}
