package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Patient represents an enrolled follow-up patient.
// @Description Patient archive information
// Dates are stored as ISO YYYY-MM-DD strings; lexicographic order on that
// format matches chronological order, so range filters compare the raw
// strings and never parse into time values.
type Patient struct {
	gorm.Model
	Code             string           `json:"code" gorm:"uniqueIndex;size:32" example:"P001"`
	Name             string           `json:"name" example:"张*伟"`
	Age              int              `json:"age" example:"58"`
	Gender           string           `json:"gender" example:"男"`
	Phone            string           `json:"phone" example:"138****8888"`
	Diagnosis        string           `json:"diagnosis" example:"胃体早癌"`
	Pathology        string           `json:"pathology" example:"中分化腺癌，浸润至粘膜下层"`
	SurgeryType      string           `json:"surgery_type" example:"ESD"`
	EnrollDate       string           `json:"enroll_date" example:"2024-03-01"`
	Status           FollowUpStatus   `json:"status" gorm:"size:16" example:"待随访"`
	Mode             FollowUpMode     `json:"mode" gorm:"size:16" example:"自动随访"`
	NextFollowUp     string           `json:"next_follow_up" example:"2024-06-01"`
	Department       string           `json:"department" example:"消化内科一病区"`
	AssignedRuleCode string           `json:"assigned_rule_code" example:"R001"`
	IsConsentSigned  bool             `json:"is_consent_signed" example:"true"`
	Records          []FollowUpRecord `json:"records" gorm:"foreignKey:PatientID"`
}

// FollowUpRecord is one completed follow-up contact, owned by exactly one
// patient. Insertion order is the display order; it is not required to be
// date-sorted.
type FollowUpRecord struct {
	gorm.Model
	PatientID  uint           `json:"-" gorm:"index"`
	Code       string         `json:"code" gorm:"size:32" example:"REC001"`
	Date       string         `json:"date" example:"2024-04-10"`
	Title      string         `json:"title" example:"术后1月 人工随访"`
	Mode       FollowUpMode   `json:"mode" gorm:"size:16"`
	Notes      string         `json:"notes"`
	IsAIRobot  bool           `json:"is_ai_robot"`
	AudioURL   string         `json:"audio_url,omitempty"`
	Transcript string         `json:"transcript,omitempty"`
	Score      int            `json:"score,omitempty" example:"95"`
	Answers    datatypes.JSON `json:"answers,omitempty"`
}

// QA is a single questionnaire question/answer pair, serialized into
// FollowUpRecord.Answers.
type QA struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// UpdatePatientRequest carries the merge-update payload for a patient.
// Empty fields leave the stored value untouched.
type UpdatePatientRequest struct {
	Name             string `json:"name,omitempty"`
	Age              int    `json:"age,omitempty"`
	Gender           string `json:"gender,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Diagnosis        string `json:"diagnosis,omitempty"`
	Pathology        string `json:"pathology,omitempty"`
	SurgeryType      string `json:"surgery_type,omitempty"`
	EnrollDate       string `json:"enroll_date,omitempty"`
	Status           string `json:"status,omitempty"`
	Mode             string `json:"mode,omitempty"`
	NextFollowUp     string `json:"next_follow_up,omitempty"`
	Department       string `json:"department,omitempty"`
	AssignedRuleCode string `json:"assigned_rule_code,omitempty"`
}

// LookupAssignedRule resolves a patient's weak rule reference.
// A dangling or empty code yields ok=false, never an error: the reference
// is identifier-only and carries no integrity guarantee.
func LookupAssignedRule(db *gorm.DB, code string) (FollowUpRule, bool, error) {
	if code == "" {
		return FollowUpRule{}, false, nil
	}
	var rule FollowUpRule
	err := db.Preload("Stages", stageOrder).Where("code = ?", code).First(&rule).Error
	if err == gorm.ErrRecordNotFound {
		return FollowUpRule{}, false, nil
	}
	if err != nil {
		return FollowUpRule{}, false, err
	}
	return rule, true, nil
}
