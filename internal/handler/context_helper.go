package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mzati-dev/eduspace-portal-backend/internal/middleware"
)

func schoolFromContext(c *gin.Context) string {
	return c.GetString(middleware.ContextSchoolKey)
}

func teacherFromContext(c *gin.Context) string {
	return c.GetString(middleware.ContextTeacherKey)
}
