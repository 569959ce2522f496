package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classhub/backend/config"
	"classhub/backend/internal/api/handler"
	"classhub/backend/internal/api/middleware"
	"classhub/backend/internal/api/validator"
	"classhub/backend/internal/model"
	"classhub/backend/pkg/jwt"
	"classhub/backend/pkg/response"
)

const (
	maxBodyBytes   = 1 << 20
	authRateLimit  = 10
	authRateWindow = time.Minute

	codeRouteNotFound = 10006
)

// Deps redis-backed collaborators; either may be nil when redis is unavailable
type Deps struct {
	Revocations middleware.RevocationChecker
	Limiter     middleware.RateLimiter
}

// Setup builds the gin engine
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, deps Deps, logger *zap.Logger) *gin.Engine {
	if err := validator.Register(); err != nil {
		logger.Error("custom validators not registered", zap.Error(err))
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, codeRouteNotFound, "route not found")
	})

	authLimit := middleware.RateLimit(deps.Limiter, authRateLimit, authRateWindow)
	teacherOnly := middleware.RoleAuth(model.RoleTeacher)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)
	staff := middleware.RoleAuth(model.RoleTeacher, model.RoleAssistant, model.RoleAdmin)

	v1 := r.Group("/api/v1")
	{
		// public
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authLimit, h.Auth.Register)
			auth.POST("/login", authLimit, h.Auth.Login)
			auth.POST("/refresh", authLimit, h.Auth.RefreshToken)
			auth.GET("/invitations/:code", authLimit, h.Auth.ValidateInvitation)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, deps.Revocations, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			invitations := authorized.Group("/invitations", teacherOnly)
			{
				invitations.POST("", h.Auth.CreateInvitation)
				invitations.GET("", h.Auth.ListInvitations)
			}

			companies := authorized.Group("/companies")
			{
				companies.POST("", middleware.RoleAuth(model.RoleAdmin, model.RoleTeacher), h.Organization.CreateCompany)
				companies.GET("", h.Organization.ListCompanies)
				companies.DELETE("/:id", h.Organization.DeleteCompany)
				companies.POST("/:id/branches", h.Organization.CreateBranch)
				companies.GET("/:id/branches", h.Organization.ListBranches)
			}
			authorized.DELETE("/branches/:id", h.Organization.DeleteBranch)
			authorized.GET("/teachers/:id/assistants", h.Organization.ListAssistants)

			courses := authorized.Group("/courses")
			{
				courses.POST("", teacherOnly, h.Course.Create)
				courses.GET("", h.Course.List)
				courses.GET("/:id", h.Course.Get)
				courses.PUT("/:id", h.Course.Update)
				courses.DELETE("/:id", h.Course.Delete)
				courses.POST("/:id/enrollments", h.Course.Enroll)
				courses.GET("/:id/enrollments", h.Course.ListEnrollments)
				courses.POST("/:id/progress", h.Progress.CreateCourseProgress)
				courses.GET("/:id/progress", h.Progress.ListCourseProgress)
			}
			authorized.DELETE("/course-progress/:id", h.Progress.DeleteCourseProgress)

			enrollments := authorized.Group("/enrollments")
			{
				enrollments.PUT("/:id/default-slot", h.Course.SetDefaultSlot)
				enrollments.DELETE("/:id", h.Course.Withdraw)
				enrollments.POST("/:id/progress", h.Progress.CreatePersonalProgress)
				enrollments.GET("/:id/progress", h.Progress.ListPersonalProgress)
			}
			authorized.DELETE("/personal-progress/:id", h.Progress.DeletePersonalProgress)

			students := authorized.Group("/students")
			{
				students.GET("/:id/enrollments", h.Course.ListStudentEnrollments)
				students.GET("/:id/calendar", h.Calendar.GetStudentCalendar)
				students.GET("/:id/calendar.ics", h.Calendar.ExportStudentCalendarICS)
				students.GET("/:id/clinic-attendances", h.Clinic.ListStudentAttendances)
			}

			clinic := authorized.Group("/clinic")
			{
				slots := clinic.Group("/slots")
				{
					slots.POST("", teacherOnly, h.Clinic.CreateSlot)
					slots.GET("", h.Clinic.ListSlots)
					slots.GET("/:id", h.Clinic.GetSlot)
					slots.PUT("/:id", h.Clinic.UpdateSlot)
					slots.DELETE("/:id", h.Clinic.DeleteSlot)
				}

				sessions := clinic.Group("/sessions")
				{
					sessions.POST("/emergency", teacherOnly, h.Clinic.CreateEmergencySession)
					sessions.GET("", h.Clinic.ListSessions)
					sessions.GET("/:id", h.Clinic.GetSession)
					sessions.POST("/:id/cancel", h.Clinic.CancelSession)
					sessions.GET("/:id/attendances", staff, h.Clinic.ListSessionAttendances)
				}

				attendances := clinic.Group("/attendances")
				{
					attendances.POST("", h.Clinic.CreateAttendance)
					attendances.DELETE("/:id", h.Clinic.CancelAttendance)
					attendances.POST("/:id/move", h.Clinic.MoveAttendance)
				}

				records := clinic.Group("/records")
				{
					records.POST("", h.Clinic.CreateRecord)
					records.GET("/:id", h.Clinic.GetRecord)
					records.PUT("/:id", h.Clinic.UpdateRecord)
					records.DELETE("/:id", h.Clinic.DeleteRecord)
				}

				batch := clinic.Group("/batch", adminOnly)
				{
					batch.POST("/weekly", h.Batch.RunWeekly)
					batch.GET("/runs", h.Batch.ListRuns)
				}

				clinic.GET("/roster", staff, h.Export.ExportWeeklyRoster)
			}
		}
	}

	return r
}
