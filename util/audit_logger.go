package util

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/qiuyue/followup-center/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEventType represents different types of clinical audit events
type AuditEventType string

const (
	EventPatientCreated     AuditEventType = "PATIENT_CREATED"
	EventPatientUpdated     AuditEventType = "PATIENT_UPDATED"
	EventFollowUpExecuted   AuditEventType = "FOLLOWUP_EXECUTED"
	EventRulePublished      AuditEventType = "RULE_PUBLISHED"
	EventTriageApproved     AuditEventType = "TRIAGE_APPROVED"
	EventTriageRejected     AuditEventType = "TRIAGE_REJECTED"
	EventKnowledgeImported  AuditEventType = "KNOWLEDGE_IMPORTED"
	EventPasswordChanged    AuditEventType = "PASSWORD_CHANGED"
	EventRateLimitExceeded  AuditEventType = "RATE_LIMIT_EXCEEDED"
	EventSuspiciousActivity AuditEventType = "SUSPICIOUS_ACTIVITY"
	EventEndpointCall       AuditEventType = "ENDPOINT_CALL"
)

// AuditEvent represents a clinical audit event to be logged
type AuditEvent struct {
	EventType AuditEventType
	Actor     string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

var auditLogger *log.Logger
var auditDB *gorm.DB

// SetAuditLoggerDB sets a gorm DB instance used by the audit logger.
// Call this during application startup (e.g. in main) after DB initialization.
func SetAuditLoggerDB(db *gorm.DB) {
	auditDB = db
}

func init() {
	// Initialize audit logger - in production, this could write to a separate file
	auditLogger = log.New(os.Stdout, "[AUDIT] ", log.LstdFlags|log.Lmsgprefix)
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	// Replace newlines, carriage returns, and tabs with spaces
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	// Truncate very long values to prevent log flooding
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogAuditEvent logs a clinical audit event
func LogAuditEvent(event AuditEvent) {
	// Sanitize all string fields to prevent log injection
	msg := fmt.Sprintf("Event=%s Actor=%s IP=%s UserAgent=%s Message=%s",
		sanitizeLogValue(string(event.EventType)),
		sanitizeLogValue(event.Actor),
		sanitizeLogValue(event.IP),
		sanitizeLogValue(event.UserAgent),
		sanitizeLogValue(event.Message),
	)

	if len(event.Details) > 0 {
		// Don't log Details map directly to avoid injection
		// Instead, log the count of details
		msg = fmt.Sprintf("%s DetailsCount=%d", msg, len(event.Details))
	}

	auditLogger.Println(msg)

	// Persist to DB if available (best-effort, do not fail operation)
	if auditDB != nil {
		var details datatypes.JSON
		if event.Details != nil {
			if b, err := json.Marshal(event.Details); err == nil {
				details = datatypes.JSON(b)
			}
		}

		entry := model.AuditLog{
			EventType: string(event.EventType),
			Actor:     sanitizeLogValue(event.Actor),
			IP:        sanitizeLogValue(event.IP),
			UserAgent: sanitizeLogValue(event.UserAgent),
			Message:   sanitizeLogValue(event.Message),
			Details:   details,
		}

		// best-effort write; ignore errors but log them to stderr
		if err := auditDB.Create(&entry).Error; err != nil {
			auditLogger.Printf("Failed to persist audit event: %v", err)
		}
	}
}

// LogTriageDecision logs an enrollment triage approve/reject decision
func LogTriageDecision(eventType AuditEventType, candidateCode, ip, userAgent, reason string) {
	LogAuditEvent(AuditEvent{
		EventType: eventType,
		IP:        ip,
		UserAgent: userAgent,
		Message:   fmt.Sprintf("Triage decision for %s: %s", candidateCode, reason),
		Details:   map[string]interface{}{"candidate": candidateCode},
	})
}

// LogPasswordChanged logs a profile password change
func LogPasswordChanged(actor, ip, userAgent string) {
	LogAuditEvent(AuditEvent{
		EventType: EventPasswordChanged,
		Actor:     actor,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "Account password updated",
	})
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(actor, ip, endpoint string) {
	LogAuditEvent(AuditEvent{
		EventType: EventRateLimitExceeded,
		Actor:     actor,
		IP:        ip,
		Message:   fmt.Sprintf("Rate limit exceeded for endpoint: %s", endpoint),
	})
}

// GetAuditLoggerForTest returns the current audit logger for testing purposes
func GetAuditLoggerForTest() *log.Logger {
	return auditLogger
}

// SetAuditLoggerForTest sets a custom logger for testing purposes
func SetAuditLoggerForTest(logger *log.Logger) {
	auditLogger = logger
}
