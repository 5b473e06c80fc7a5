package router

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/burs-api/internal/handler"
	"github.com/noah-isme/burs-api/internal/middleware"
	"github.com/noah-isme/burs-api/internal/models"
	"github.com/noah-isme/burs-api/internal/service"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Term       *handler.TermHandler
	Student    *handler.StudentHandler
	Member     *handler.MemberHandler
	Commitment *handler.CommitmentHandler
	Payment    *handler.PaymentHandler
	Ledger     *handler.LedgerHandler
	Cut        *handler.CutHandler
	Meeting    *handler.MeetingHandler
	Dashboard  *handler.DashboardHandler
	Report     *handler.ReportHandler
	Metrics    *handler.MetricsHandler
}

// Register mounts every route group under the API prefix. Read endpoints
// admit every authenticated role; mutations are restricted to admins and
// staff, destructive operations to admins.
func Register(r *gin.Engine, prefix string, h Handlers, authService *service.AuthService) {
	admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)

		authed := auth.Group("", middleware.JWT(authService))
		authed.POST("/logout", h.Auth.Logout)
		authed.POST("/change-password", h.Auth.ChangePassword)
		authed.GET("/me", h.Auth.Me)
	}

	protected := api.Group("", middleware.JWT(authService))

	terms := protected.Group("/terms")
	{
		terms.GET("", h.Term.List)
		terms.GET("/active", h.Term.GetActive)
		terms.GET("/:id", h.Term.Get)
		terms.POST("/transition", admins, h.Term.OpenNewTerm)
		terms.POST("/:id/activate", admins, h.Term.SetActive)
		terms.DELETE("/:id", admins, h.Term.Delete)

		terms.GET("/:id/config", h.Term.GetConfig)
		terms.PUT("/:id/config/yearly", admins, h.Term.SetYearlyAmount)
		terms.PUT("/:id/config/monthly", admins, h.Term.SetMonthlyAmount)

		terms.GET("/:id/commitments", h.Commitment.ListByTerm)
		terms.GET("/:id/ledger", h.Ledger.GetTermLedger)
		terms.POST("/:id/ledger/cut", staff, h.Ledger.CutByDate)
		terms.POST("/:id/ledger/bulk-cut", staff, h.Ledger.BulkCutByDate)
		terms.GET("/:id/students/:studentId/ledger", h.Ledger.GetStudentLedger)
		terms.POST("/:id/students/:studentId/reinstate", staff, h.Cut.Reinstate)
	}

	students := protected.Group("/students")
	{
		students.GET("", h.Student.List)
		students.GET("/:id", h.Student.Get)
		students.POST("", staff, h.Student.Create)
		students.PUT("/:id", staff, h.Student.Update)
		students.DELETE("/:id", admins, h.Student.Delete)
		students.POST("/:id/admit", staff, h.Student.Admit)
		students.GET("/:id/terms/:termId", h.Student.GetTermRecord)
		students.PUT("/:id/terms/:termId", staff, h.Student.UpdateTermRecord)
		students.GET("/:id/transcripts", h.Student.ListTranscripts)
		students.POST("/:id/transcripts", staff, h.Student.UploadTranscript)
	}

	members := protected.Group("/members")
	{
		members.GET("", h.Member.List)
		members.GET("/:id", h.Member.Get)
		members.POST("", staff, h.Member.Create)
		members.PUT("/:id", staff, h.Member.Update)
		members.DELETE("/:id", admins, h.Member.Delete)
		members.GET("/:id/commitments", h.Member.ListCommitments)
	}

	commitments := protected.Group("/commitments")
	{
		commitments.GET("/:id", h.Commitment.Get)
		commitments.POST("", staff, h.Commitment.Create)
		commitments.PUT("/:id", staff, h.Commitment.Update)
		commitments.DELETE("/:id", admins, h.Commitment.Delete)
	}

	payments := protected.Group("/payments")
	{
		payments.GET("", h.Payment.List)
		payments.GET("/:id", h.Payment.Get)
		payments.POST("", staff, h.Payment.Create)
		payments.POST("/:id/cancel", staff, h.Payment.Cancel)
		payments.DELETE("/:id", admins, h.Payment.Delete)
	}

	ledger := protected.Group("/ledger")
	{
		ledger.PATCH("/:id", staff, h.Ledger.ToggleStatus)
	}

	meetings := protected.Group("/meetings")
	{
		meetings.GET("", h.Meeting.List)
		meetings.GET("/latest", h.Meeting.GetLatest)
		meetings.GET("/:id", h.Meeting.Get)
		meetings.POST("", staff, h.Meeting.Create)
		meetings.GET("/:id/attendance", h.Meeting.ListAttendance)
		meetings.PUT("/:id/attendance", staff, h.Meeting.SaveAttendance)
		meetings.POST("/:id/absence-check", staff, h.Cut.RunMeetingAbsenceCheck)
	}

	cuts := protected.Group("/cuts")
	{
		cuts.POST("/transcript-check", staff, h.Cut.RunTranscriptCheck)
	}

	if h.Dashboard != nil {
		protected.GET("/dashboard/terms/:termId/funding", h.Dashboard.TermFundingSummary)
	}

	if h.Report != nil {
		reports := protected.Group("/reports")
		reports.POST("", staff, h.Report.Create)
		reports.GET("", h.Report.List)
		reports.GET("/:id", h.Report.Get)
		// Download is token-authenticated, not JWT-authenticated.
		api.GET("/reports/download", h.Report.Download)
	}

	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
}
