package endpoint_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/qiuyue/followup-center/model"
	"github.com/stretchr/testify/assert"
)

func TestListPatients_Seeded(t *testing.T) {
	r, _ := setupTestServer(t)

	data := getData(t, r, "/patient")
	assertTotal(t, data, 2)
	assert.EqualValues(t, 2, data["total_fetched"])

	var patients []model.Patient
	b, _ := json.Marshal(data["patients"])
	assert.NoError(t, json.Unmarshal(b, &patients))
	assert.Equal(t, "P001", patients[0].Code)
	assert.Equal(t, "P002", patients[1].Code)
}

func TestListPatients_KeywordFilter(t *testing.T) {
	r, _ := setupTestServer(t)

	data := getData(t, r, "/patient?keyword=张")
	assertTotal(t, data, 2)
	assert.EqualValues(t, 1, data["total_fetched"])
}

func TestListPatients_StatusTab(t *testing.T) {
	r, _ := setupTestServer(t)

	data := getData(t, r, "/patient?tab=已完成")
	assert.EqualValues(t, 1, data["total_fetched"])

	// Wildcard tab keeps everyone
	data = getData(t, r, "/patient?tab=全部")
	assert.EqualValues(t, 2, data["total_fetched"])
}

func TestListPatients_UnknownTab(t *testing.T) {
	r, _ := setupTestServer(t)

	rr := doRequest(r, "GET", "/patient?tab=已出院", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListPatients_InvalidAge(t *testing.T) {
	r, _ := setupTestServer(t)

	rr := doRequest(r, "GET", "/patient?age_min=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListPatients_CombinedFilters(t *testing.T) {
	r, _ := setupTestServer(t)

	data := getData(t, r, "/patient?gender=男&age_min=60&enroll_start=2024-01-01")
	assert.EqualValues(t, 1, data["total_fetched"])
}

func TestGetPatientInfo_ResolvesAssignedRule(t *testing.T) {
	r, _ := setupTestServer(t)

	data := getData(t, r, "/patient/P001")

	var patient model.Patient
	b, _ := json.Marshal(data["patient"])
	assert.NoError(t, json.Unmarshal(b, &patient))
	assert.Equal(t, "张*伟", patient.Name)
	assert.Len(t, patient.Records, 2)

	var rule model.FollowUpRule
	b, _ = json.Marshal(data["assigned_rule"])
	assert.NoError(t, json.Unmarshal(b, &rule))
	assert.Equal(t, "R001", rule.Code)
	assert.Len(t, rule.Stages, 4)
}

func TestGetPatientInfo_DanglingRuleOmitted(t *testing.T) {
	r, _ := setupTestServer(t)

	// P002 carries no assigned rule code
	data := getData(t, r, "/patient/P002")
	_, hasRule := data["assigned_rule"]
	assert.False(t, hasRule)
}

func TestGetPatientInfo_NotFound(t *testing.T) {
	r, _ := setupTestServer(t)

	rr := doRequest(r, "GET", "/patient/P999", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreatePatient(t *testing.T) {
	r, db := setupTestServer(t)

	body := map[string]interface{}{
		"name":        "王*强",
		"age":         61,
		"gender":      "男",
		"phone":       "137****6666",
		"diagnosis":   "食管早癌",
		"enroll_date": "2024-05-22",
	}
	rr := doRequest(r, "POST", "/patient", body)
	assert.Equal(t, http.StatusOK, rr.Code)

	var created model.Patient
	resp := parseAPIResp(t, rr)
	assert.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.NotEmpty(t, created.Code)
	assert.Equal(t, model.StatusUnenrolled, created.Status)
	assert.Equal(t, model.ModeManual, created.Mode)

	var count int64
	db.Model(&model.Patient{}).Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestCreatePatient_MissingRequiredFields(t *testing.T) {
	r, _ := setupTestServer(t)

	rr := doRequest(r, "POST", "/patient", map[string]interface{}{"name": "王*强"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreatePatient_DuplicateCode(t *testing.T) {
	r, _ := setupTestServer(t)

	body := map[string]interface{}{
		"code":      "P001",
		"name":      "重复患者",
		"phone":     "137****0000",
		"diagnosis": "胃早癌",
	}
	rr := doRequest(r, "POST", "/patient", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreatePatient_UnknownStatus(t *testing.T) {
	r, _ := setupTestServer(t)

	body := map[string]interface{}{
		"name":      "王*强",
		"phone":     "137****6666",
		"diagnosis": "食管早癌",
		"status":    "已出院",
	}
	rr := doRequest(r, "POST", "/patient", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdatePatient_MergesFields(t *testing.T) {
	r, db := setupTestServer(t)

	rr := doRequest(r, "PATCH", "/patient/P001", map[string]interface{}{
		"status": "随访中",
		"phone":  "138****0000",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var patient model.Patient
	assert.NoError(t, db.Where("code = ?", "P001").First(&patient).Error)
	assert.Equal(t, model.StatusInProgress, patient.Status)
	assert.Equal(t, "138****0000", patient.Phone)
	// Untouched fields survive the merge
	assert.Equal(t, "张*伟", patient.Name)
	assert.Equal(t, "胃体早癌", patient.Diagnosis)
}

func TestUpdatePatient_UnknownCode(t *testing.T) {
	r, _ := setupTestServer(t)

	rr := doRequest(r, "PATCH", "/patient/P999", map[string]interface{}{"phone": "138****0000"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdatePatient_UnknownMode(t *testing.T) {
	r, _ := setupTestServer(t)

	rr := doRequest(r, "PATCH", "/patient/P001", map[string]interface{}{"mode": "半自动"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
