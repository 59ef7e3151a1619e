package main

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"harambee/internal/handlers"
	"harambee/internal/middleware"
	"harambee/internal/services"
)

// app bundles the services the HTTP layer depends on.
type app struct {
	users     services.UserServicer
	audit     services.AuditServicer
	members   services.MemberServicer
	groups    services.GroupServicer
	goals     services.GoalServicer
	hierarchy services.GoalHierarchyServicer
	ledger    services.LedgerServicer
	progress  services.ProgressServicer
	reminders services.ReminderServicer
}

// routerConfig carries the HTTP-level settings.
type routerConfig struct {
	corsOrigins   []string
	serviceAPIKey string
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func newRouter(a app, cfg routerConfig) *gin.Engine {
	authHandler := handlers.NewAuthHandler(a.users, a.audit)
	memberHandler := handlers.NewMemberHandler(a.members, a.audit)
	groupHandler := handlers.NewGroupHandler(a.groups, a.audit)
	goalHandler := handlers.NewGoalHandler(a.goals, a.audit)
	targetHandler := handlers.NewTargetHandler(a.hierarchy, a.audit)
	contributionHandler := handlers.NewContributionHandler(a.ledger, a.audit)
	pledgeHandler := handlers.NewPledgeHandler(a.ledger, a.audit)
	progressHandler := handlers.NewProgressHandler(a.progress, a.audit)
	opsHandler := handlers.NewOpsHandler(a.reminders, a.goals, a.progress)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(cfg.corsOrigins)))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Scheduler routes
	ops := v1.Group("/ops", middleware.ServiceKeyMiddleware(cfg.serviceAPIKey))
	ops.POST("/reminders", opsHandler.RunReminders)
	ops.POST("/snapshots", opsHandler.SnapshotActiveGoals)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/summary", progressHandler.Summarize)

	members := protected.Group("/members")
	members.POST("", memberHandler.CreateMember)
	members.GET("", memberHandler.ListMembers)
	members.GET("/:id", memberHandler.GetMember)
	members.PUT("/:id", memberHandler.UpdateMember)
	members.DELETE("/:id", memberHandler.DeleteMember)
	members.GET("/:id/notifications", memberHandler.ListNotifications)

	groups := protected.Group("/groups")
	groups.POST("", groupHandler.CreateGroup)
	groups.GET("", groupHandler.ListGroups)
	groups.GET("/:id", groupHandler.GetGroup)
	groups.PUT("/:id", groupHandler.UpdateGroup)
	groups.DELETE("/:id", groupHandler.DeleteGroup)
	groups.GET("/:id/members", groupHandler.ListMembers)
	groups.POST("/:id/members", groupHandler.AddMember)
	groups.DELETE("/:id/members/:member_id", groupHandler.RemoveMember)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.ListGoals)
	goals.GET("/:id", goalHandler.GetGoal)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/complete", goalHandler.CompleteGoal)

	goals.GET("/:id/allocation", targetHandler.GetAllocation)
	goals.POST("/:id/group-targets", targetHandler.SetGroupTarget)
	goals.GET("/:id/group-targets", targetHandler.ListGroupTargets)
	goals.GET("/:id/group-targets/:group_id", targetHandler.GetGroupTarget)
	goals.PUT("/:id/group-targets/:group_id", targetHandler.UpdateGroupTarget)
	goals.DELETE("/:id/group-targets/:group_id", targetHandler.DeleteGroupTarget)
	goals.POST("/:id/member-targets", targetHandler.SetGoalMemberTarget)
	goals.GET("/:id/member-targets", targetHandler.ListGoalMemberTargets)
	goals.GET("/:id/member-targets/:member_id", targetHandler.GetGoalMemberTarget)
	goals.PUT("/:id/member-targets/:member_id", targetHandler.UpdateGoalMemberTarget)
	goals.DELETE("/:id/member-targets/:member_id", targetHandler.DeleteGoalMemberTarget)
	goals.POST("/:id/groups/:group_id/member-targets", targetHandler.SetMemberTarget)
	goals.GET("/:id/groups/:group_id/member-targets", targetHandler.ListMemberTargets)
	goals.GET("/:id/groups/:group_id/member-targets/:member_id", targetHandler.GetMemberTarget)
	goals.PUT("/:id/groups/:group_id/member-targets/:member_id", targetHandler.UpdateMemberTarget)
	goals.DELETE("/:id/groups/:group_id/member-targets/:member_id", targetHandler.DeleteMemberTarget)

	goals.GET("/:id/progress", progressHandler.GoalProgress)
	goals.GET("/:id/groups/:group_id/progress", progressHandler.GroupProgress)
	goals.GET("/:id/members/:member_id/progress", progressHandler.MemberProgress)
	goals.GET("/:id/groups/:group_id/members/:member_id/progress", progressHandler.GroupMemberProgress)
	goals.GET("/:id/breakdown", progressHandler.GoalBreakdown)
	goals.GET("/:id/report", progressHandler.GoalReport)
	goals.POST("/:id/snapshots", progressHandler.RecordSnapshot)
	goals.GET("/:id/snapshots", progressHandler.ListSnapshots)

	contributions := protected.Group("/contributions")
	contributions.POST("", contributionHandler.CreateContribution)
	contributions.GET("", contributionHandler.ListContributions)
	contributions.GET("/:id", contributionHandler.GetContribution)
	contributions.PUT("/:id", contributionHandler.UpdateContribution)
	contributions.DELETE("/:id", contributionHandler.DeleteContribution)
	contributions.POST("/:id/complete", contributionHandler.CompleteContribution)
	contributions.POST("/:id/fail", contributionHandler.FailContribution)
	contributions.POST("/:id/refund", contributionHandler.RefundContribution)

	pledges := protected.Group("/pledges")
	pledges.POST("", pledgeHandler.CreatePledge)
	pledges.GET("", pledgeHandler.ListPledges)
	pledges.GET("/:id", pledgeHandler.GetPledge)
	pledges.PUT("/:id", pledgeHandler.UpdatePledge)
	pledges.DELETE("/:id", pledgeHandler.DeletePledge)
	pledges.POST("/:id/fulfill", pledgeHandler.FulfillPledge)
	pledges.POST("/:id/cancel", pledgeHandler.CancelPledge)

	return router
}
