package model

import (
	"strings"

	"gorm.io/gorm"
)

// FormTemplate is a questionnaire template from the form catalog. The
// catalog is read-only from this service; stages reference templates by
// code and usage counters come from the upstream form platform.
type FormTemplate struct {
	gorm.Model
	Code       string `json:"code" gorm:"uniqueIndex;size:32" example:"F1"`
	Name       string `json:"name" example:"ESD 术后早期并发症筛查量表"`
	Category   string `json:"category" example:"并发症筛查"`
	Usage      int    `json:"usage" example:"125"`
	UpdateDate string `json:"update_date" example:"2024-03-20"`
}

// FilterForms keeps the templates whose name or category contains keyword.
// An empty keyword returns the input unchanged.
func FilterForms(forms []FormTemplate, keyword string) []FormTemplate {
	if keyword == "" {
		return forms
	}
	out := make([]FormTemplate, 0, len(forms))
	for _, f := range forms {
		if strings.Contains(f.Name, keyword) || strings.Contains(f.Category, keyword) {
			out = append(out, f)
		}
	}
	return out
}

// LookupFormTemplate resolves a stage's weak form reference. Empty or
// dangling codes yield ok=false.
func LookupFormTemplate(db *gorm.DB, code string) (FormTemplate, bool, error) {
	if code == "" {
		return FormTemplate{}, false, nil
	}
	var form FormTemplate
	err := db.Where("code = ?", code).First(&form).Error
	if err == gorm.ErrRecordNotFound {
		return FormTemplate{}, false, nil
	}
	if err != nil {
		return FormTemplate{}, false, err
	}
	return form, true, nil
}
