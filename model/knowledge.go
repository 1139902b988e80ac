package model

import (
	"fmt"

	"gorm.io/gorm"
)

// KnowledgeType classifies knowledge base assets. The set is closed.
type KnowledgeType string

const (
	KnowledgeQuestionnaire KnowledgeType = "questionnaire"
	KnowledgeArticle       KnowledgeType = "article"
	KnowledgeTerms         KnowledgeType = "terms"
	KnowledgeSpeech        KnowledgeType = "speech"
)

var knowledgeTypeLabels = map[KnowledgeType]string{
	KnowledgeQuestionnaire: "问卷量表",
	KnowledgeArticle:       "宣教内容",
	KnowledgeSpeech:        "AI 语音话术",
	KnowledgeTerms:         "标准术语",
}

// ValidKnowledgeType reports whether t is one of the four known categories.
func ValidKnowledgeType(t KnowledgeType) bool {
	_, ok := knowledgeTypeLabels[t]
	return ok
}

// KnowledgeTypeLabel resolves the display label for an asset category,
// rejecting unknown variants.
func KnowledgeTypeLabel(t KnowledgeType) (string, error) {
	label, ok := knowledgeTypeLabels[t]
	if !ok {
		return "", fmt.Errorf("unknown knowledge type: %q", t)
	}
	return label, nil
}

// KnowledgeItem is one asset in the follow-up knowledge base. VoiceType is
// only meaningful for speech scripts.
type KnowledgeItem struct {
	gorm.Model
	Code      string        `json:"code" gorm:"uniqueIndex;size:32" example:"K001"`
	Title     string        `json:"title" example:"ESD 术后 1 个月恢复评估量表"`
	Author    string        `json:"author" example:"消化一科"`
	Date      string        `json:"date" example:"2024-03-20"`
	Usage     int           `json:"usage" example:"45"`
	Type      KnowledgeType `json:"type" gorm:"size:16;index" example:"questionnaire"`
	Content   string        `json:"content,omitempty" gorm:"type:text"`
	VoiceType string        `json:"voice_type,omitempty" example:"女声-亲和型"`
}
