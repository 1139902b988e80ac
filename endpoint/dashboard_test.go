package endpoint_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDashboardStats_ExplicitWindow(t *testing.T) {
	r, _ := setupTestServer(t)

	data := getData(t, r, "/dashboard/stats?start=2024-01-01&end=2024-12-31")

	cards := data["cards"].(map[string]interface{})
	assert.EqualValues(t, 2, cards["new_enrollments"])
	assert.EqualValues(t, 2, cards["cumulative"])
	// 3 triage candidates + 1 patient awaiting follow-up
	assert.EqualValues(t, 4, cards["pending_tasks"])
	assert.EqualValues(t, 0, cards["overdue"])

	distribution := data["disease_distribution"].(map[string]interface{})
	assert.EqualValues(t, 1, distribution["胃体早癌"])
	assert.EqualValues(t, 1, distribution["结肠息肉"])

	trend := data["enrollment_trend"].([]interface{})
	assert.Len(t, trend, 7)
	monday := trend[0].(map[string]interface{})
	assert.Equal(t, "周一", monday["weekday"])
	// P002 enrolled 2024-04-15, a Monday
	assert.EqualValues(t, 1, monday["count"])

	workload := data["staff_workload"].([]interface{})
	assert.Len(t, workload, 4)
	first := workload[0].(map[string]interface{})
	assert.Equal(t, "林主任", first["name"])
	assert.InDelta(t, 145.0/157.0*100, first["completion_rate"].(float64), 0.01)
}

func TestGetDashboardStats_NamedRange(t *testing.T) {
	r, _ := setupTestServer(t)

	// The seeded enrollments are outside any recent window
	data := getData(t, r, "/dashboard/stats?range=7d")

	cards := data["cards"].(map[string]interface{})
	assert.EqualValues(t, 0, cards["new_enrollments"])
	assert.EqualValues(t, 2, cards["cumulative"])
}

func TestGetDashboardStats_DiseaseFilter(t *testing.T) {
	r, _ := setupTestServer(t)

	data := getData(t, r, "/dashboard/stats?start=2024-01-01&end=2024-12-31&disease=胃体早癌")

	cards := data["cards"].(map[string]interface{})
	assert.EqualValues(t, 1, cards["new_enrollments"])
	assert.EqualValues(t, 1, cards["cumulative"])

	distribution := data["disease_distribution"].(map[string]interface{})
	assert.Len(t, distribution, 1)
}

func TestGetDashboardStats_InvalidWindow(t *testing.T) {
	r, _ := setupTestServer(t)

	rr := doRequest(r, "GET", "/dashboard/stats?range=1y", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(r, "GET", "/dashboard/stats?start=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(r, "GET", "/dashboard/stats?start=2024-01-01&end=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
