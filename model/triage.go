package model

import (
	"fmt"

	"gorm.io/gorm"
)

// MatchType classifies enrollment triage logic. The set is closed.
type MatchType string

const (
	MatchPathologyKeyword MatchType = "病理关键词"
	MatchSurgeryCode      MatchType = "手术代码"
	MatchICD10            MatchType = "ICD-10"
)

var matchTypes = map[MatchType]struct{}{
	MatchPathologyKeyword: {},
	MatchSurgeryCode:      {},
	MatchICD10:            {},
}

// ValidMatchType reports whether t is one of the three known match types.
func ValidMatchType(t MatchType) bool {
	_, ok := matchTypes[t]
	return ok
}

// MatchRule is one configured enrollment triage logic: an expression
// evaluated against EMR/HIS feeds that routes matching patients into a
// target follow-up group.
type MatchRule struct {
	gorm.Model
	Code        string    `json:"code" gorm:"uniqueIndex;size:32"`
	Title       string    `json:"title" example:"高级别上皮内瘤变"`
	Type        MatchType `json:"type" gorm:"size:16" example:"病理关键词"`
	Expression  string    `json:"expression" gorm:"type:text" example:"文本包含: \"高级别上皮内瘤变\" OR \"腺癌\""`
	TargetGroup string    `json:"target_group" example:"早癌高危组"`
	Status      string    `json:"status" gorm:"size:16" example:"active"`
}

// PendingPatient is a candidate captured by the match engine, awaiting
// clinician audit before (or instead of) formal enrollment.
type PendingPatient struct {
	gorm.Model
	Code            string    `json:"code" gorm:"uniqueIndex;size:32" example:"T001"`
	Name            string    `json:"name" example:"赵*刚"`
	Age             int       `json:"age" example:"58"`
	Gender          string    `json:"gender" example:"男"`
	Diagnosis       string    `json:"diagnosis"`
	MatchReason     string    `json:"match_reason" example:"病理检测到“异型增生”"`
	MatchType       MatchType `json:"match_type" gorm:"size:16"`
	IsConsentSigned bool      `json:"is_consent_signed"`
	CapturedAt      string    `json:"captured_at" example:"2024-05-20 09:15"`
}

// ErrConsentNotSigned signals an approve attempt on a candidate whose
// informed consent is unconfirmed; the caller must set force to proceed.
var ErrConsentNotSigned = fmt.Errorf("consent form not signed")
