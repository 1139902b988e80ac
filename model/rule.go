package model

import "gorm.io/gorm"

// FollowUpRule is a reusable multi-stage follow-up plan for one disease type.
type FollowUpRule struct {
	gorm.Model
	Code            string          `json:"code" gorm:"uniqueIndex;size:32" example:"R001"`
	Name            string          `json:"name" example:"早癌 (ESD) 术后全生命周期随访方案"`
	DiseaseType     string          `json:"disease_type" example:"胃早癌"`
	IsAutoExecution bool            `json:"is_auto_execution"`
	Stages          []FollowUpStage `json:"stages" gorm:"foreignKey:RuleID"`
}

// FollowUpStage is one node on a rule's timeline. OffsetDays counts from the
// procedure date; TriggerLeadDays is how many days early the reminder fires.
// FormCode is a weak reference into the form template catalog; the empty
// string means no questionnaire has been attached yet.
type FollowUpStage struct {
	gorm.Model
	RuleID          uint   `json:"-" gorm:"index"`
	Code            string `json:"code" gorm:"size:32" example:"S1"`
	PeriodName      string `json:"period_name" example:"术后1个月"`
	OffsetDays      int    `json:"offset_days" example:"30"`
	TriggerLeadDays int    `json:"trigger_lead_days" example:"3"`
	FormCode        string `json:"form_code" example:"F1"`
	FormName        string `json:"form_name" example:"术后早期并发症筛查量表"`
	Description     string `json:"description,omitempty"`
	Position        int    `json:"-" gorm:"column:position"`
}

// stageOrder keeps preloaded stage slices in their committed order.
func stageOrder(db *gorm.DB) *gorm.DB {
	return db.Order("follow_up_stages.position ASC")
}
