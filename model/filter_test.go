package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func filterFixture() []Patient {
	return []Patient{
		{Code: "P001", Name: "张*伟", Age: 65, Gender: "男", Diagnosis: "胃体早癌", Status: StatusPending, EnrollDate: "2024-03-01", NextFollowUp: "2024-06-01"},
		{Code: "P002", Name: "李*华", Age: 52, Gender: "女", Diagnosis: "结肠息肉", Status: StatusCompleted, EnrollDate: "2024-04-15", NextFollowUp: "2025-04-15"},
	}
}

func TestFilterPatients_EmptyFilterMatchesAll(t *testing.T) {
	patients := filterFixture()
	out := FilterPatients(patients, PatientFilter{})
	assert.Equal(t, patients, out)
}

func TestFilterPatients_KeywordMatchesNameOrCode(t *testing.T) {
	patients := filterFixture()

	out := FilterPatients(patients, PatientFilter{Keyword: "张"})
	assert.Len(t, out, 1)
	assert.Equal(t, "P001", out[0].Code)

	out = FilterPatients(patients, PatientFilter{Keyword: "P002"})
	assert.Len(t, out, 1)
	assert.Equal(t, "李*华", out[0].Name)

	// Substring, not prefix
	out = FilterPatients(patients, PatientFilter{Keyword: "002"})
	assert.Len(t, out, 1)
}

func TestFilterPatients_Status(t *testing.T) {
	out := FilterPatients(filterFixture(), PatientFilter{Status: StatusCompleted, HasStatus: true})
	assert.Len(t, out, 1)
	assert.Equal(t, "P002", out[0].Code)
}

func TestFilterPatients_AgeBounds(t *testing.T) {
	patients := filterFixture()

	out := FilterPatients(patients, PatientFilter{AgeMin: 60, HasAgeMin: true})
	assert.Len(t, out, 1)
	assert.Equal(t, "P001", out[0].Code)

	out = FilterPatients(patients, PatientFilter{AgeMax: 60, HasAgeMax: true})
	assert.Len(t, out, 1)
	assert.Equal(t, "P002", out[0].Code)

	// Bounds are inclusive
	out = FilterPatients(patients, PatientFilter{AgeMin: 52, HasAgeMin: true, AgeMax: 65, HasAgeMax: true})
	assert.Len(t, out, 2)
}

func TestFilterPatients_DateRanges(t *testing.T) {
	patients := filterFixture()

	out := FilterPatients(patients, PatientFilter{EnrollStart: "2024-04-01"})
	assert.Len(t, out, 1)
	assert.Equal(t, "P002", out[0].Code)

	out = FilterPatients(patients, PatientFilter{EnrollEnd: "2024-03-31"})
	assert.Len(t, out, 1)
	assert.Equal(t, "P001", out[0].Code)

	out = FilterPatients(patients, PatientFilter{FollowUpStart: "2024-06-01", FollowUpEnd: "2024-12-31"})
	assert.Len(t, out, 1)
	assert.Equal(t, "P001", out[0].Code)
}

func TestFilterPatients_CriteriaAreANDCombined(t *testing.T) {
	patients := filterFixture()

	// Each criterion alone matches someone; together they match nobody.
	out := FilterPatients(patients, PatientFilter{Keyword: "张", Gender: "女"})
	assert.Empty(t, out)

	out = FilterPatients(patients, PatientFilter{Gender: "男", Diagnosis: "早癌"})
	assert.Len(t, out, 1)
	assert.Equal(t, "P001", out[0].Code)
}

func TestFilterPatients_PreservesOrder(t *testing.T) {
	patients := []Patient{
		{Code: "P003", Name: "王*", EnrollDate: "2024-05-01"},
		{Code: "P001", Name: "张*伟", EnrollDate: "2024-03-01"},
		{Code: "P002", Name: "李*华", EnrollDate: "2024-04-15"},
	}
	out := FilterPatients(patients, PatientFilter{EnrollStart: "2024-01-01"})
	assert.Equal(t, []string{"P003", "P001", "P002"}, []string{out[0].Code, out[1].Code, out[2].Code})
}

func TestFilterForms(t *testing.T) {
	forms := []FormTemplate{
		{Code: "F1", Name: "ESD 术后早期并发症筛查量表", Category: "并发症"},
		{Code: "F2", Name: "消化道肿瘤术后生存质量量表", Category: "生存质量"},
	}

	out := FilterForms(forms, "")
	assert.Len(t, out, 2)

	out = FilterForms(forms, "并发症")
	assert.Len(t, out, 1)
	assert.Equal(t, "F1", out[0].Code)

	out = FilterForms(forms, "生存质量")
	assert.Len(t, out, 1)
	assert.Equal(t, "F2", out[0].Code)

	out = FilterForms(forms, "不存在")
	assert.Empty(t, out)
}
