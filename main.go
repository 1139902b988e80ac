// main.go
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qiuyue/followup-center/config"
	"github.com/qiuyue/followup-center/endpoint"
	"github.com/qiuyue/followup-center/middleware"
	"github.com/qiuyue/followup-center/model"
	"github.com/qiuyue/followup-center/util"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	err = db.AutoMigrate(
		&model.Patient{},
		&model.FollowUpRecord{},
		&model.FollowUpRule{},
		&model.FollowUpStage{},
		&model.FormTemplate{},
		&model.KnowledgeItem{},
		&model.MatchRule{},
		&model.PendingPatient{},
		&model.UserAccount{},
		&model.Role{},
		&model.Profile{},
		&model.AuditLog{},
		&model.StaffWorkload{},
	)
	if err != nil {
		log.Fatalf("Error migrating schema: %v", err)
	}

	util.SetAuditLoggerDB(db)

	if err := model.SeedAll(db, util.HashNewPassword); err != nil {
		log.Fatalf("Error seeding reference data: %v", err)
	}

	// Redis backs rate limiting and rule drafts; both degrade gracefully
	// without it.
	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("Redis unavailable, falling back to in-process stores: %v", err)
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	// Create a Gin router with default middleware
	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	router.GET("/patient", endpoint.ListPatients)
	router.POST("/patient", middleware.RateLimiter(middleware.RateLimitConfig{}), endpoint.CreatePatient)
	router.GET("/patient/:code", endpoint.GetPatientInfo)
	router.PATCH("/patient/:code", endpoint.UpdatePatient)
	router.GET("/patient/:code/followup", endpoint.ListFollowUpRecords)
	router.POST("/patient/:code/followup", endpoint.ExecuteFollowUp)
	router.GET("/patient/:code/followup/:rec", endpoint.GetFollowUpRecord)

	router.GET("/rule", endpoint.ListRules)
	router.POST("/rule", endpoint.SaveRule)
	router.POST("/rule/draft", endpoint.OpenRuleDraft)
	router.GET("/rule/:code", endpoint.GetRuleInfo)
	router.POST("/rule/draft/:id/stage", endpoint.AppendDraftStage)
	router.DELETE("/rule/draft/:id/stage/:stage", endpoint.RemoveDraftStage)
	router.PUT("/rule/draft/:id/stage/:index/form", endpoint.AssignDraftForm)
	router.POST("/rule/draft/:id/commit", endpoint.CommitRuleDraft)

	router.GET("/triage/pending", endpoint.ListPendingPatients)
	router.POST("/triage/pending/:code/approve", endpoint.ApprovePendingPatient)
	router.DELETE("/triage/pending/:code", endpoint.RejectPendingPatient)
	router.GET("/triage/rule", endpoint.ListMatchRules)
	router.POST("/triage/rule", endpoint.SaveMatchRule)

	router.GET("/knowledge", endpoint.ListKnowledge)
	router.POST("/knowledge", endpoint.SaveKnowledge)
	router.DELETE("/knowledge/:code", endpoint.DeleteKnowledge)
	router.POST("/knowledge/import", middleware.RateLimiter(middleware.RateLimitConfig{Limit: 5}), endpoint.ImportKnowledge)

	router.GET("/form", endpoint.ListForms)

	router.GET("/user", endpoint.ListUsers)
	router.POST("/user", endpoint.SaveUser)
	router.POST("/user/:code/toggle", endpoint.ToggleUserStatus)
	router.GET("/user/:code/role", endpoint.GetUserRole)
	router.GET("/role", endpoint.ListRoles)

	router.GET("/profile", endpoint.GetProfile)
	router.PUT("/profile", endpoint.UpdateProfile)
	router.PUT("/profile/password", middleware.RateLimiter(middleware.RateLimitConfig{Limit: 10}), endpoint.UpdatePassword)

	router.GET("/dashboard/stats", endpoint.GetDashboardStats)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
