package endpoint_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/qiuyue/followup-center/config"
	"github.com/qiuyue/followup-center/endpoint"
	"github.com/qiuyue/followup-center/middleware"
	"github.com/qiuyue/followup-center/model"
	"github.com/qiuyue/followup-center/util"
	"gorm.io/gorm"
)

type apiResp struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

var testModels = []interface{}{
	&model.Patient{}, &model.FollowUpRecord{}, &model.FollowUpRule{},
	&model.FollowUpStage{}, &model.FormTemplate{}, &model.KnowledgeItem{},
	&model.MatchRule{}, &model.PendingPatient{}, &model.UserAccount{},
	&model.Role{}, &model.Profile{}, &model.StaffWorkload{},
}

func testHash(password string) (string, string, error) {
	return "hash:" + password, "testsalt", nil
}

// setupTestServer initializes the in-memory DB, migrates models, seeds the
// reference catalog and returns a router wired like main. Tables are dropped
// via t.Cleanup so tests stay independent despite the shared cache DB.
func setupTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	db, err := config.ConnectDatabase()
	if err != nil {
		t.Fatalf("failed to connect test DB: %v", err)
	}

	if err := db.AutoMigrate(testModels...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	if err := model.SeedAll(db, testHash); err != nil {
		t.Fatalf("seeding failed: %v", err)
	}

	util.ResetDraftStoreForTesting()

	r := gin.New()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.DatabaseMiddleware(db))

	r.GET("/patient", endpoint.ListPatients)
	r.POST("/patient", endpoint.CreatePatient)
	r.GET("/patient/:code", endpoint.GetPatientInfo)
	r.PATCH("/patient/:code", endpoint.UpdatePatient)
	r.GET("/patient/:code/followup", endpoint.ListFollowUpRecords)
	r.POST("/patient/:code/followup", endpoint.ExecuteFollowUp)
	r.GET("/patient/:code/followup/:rec", endpoint.GetFollowUpRecord)

	r.GET("/rule", endpoint.ListRules)
	r.POST("/rule", endpoint.SaveRule)
	r.POST("/rule/draft", endpoint.OpenRuleDraft)
	r.GET("/rule/:code", endpoint.GetRuleInfo)
	r.POST("/rule/draft/:id/stage", endpoint.AppendDraftStage)
	r.DELETE("/rule/draft/:id/stage/:stage", endpoint.RemoveDraftStage)
	r.PUT("/rule/draft/:id/stage/:index/form", endpoint.AssignDraftForm)
	r.POST("/rule/draft/:id/commit", endpoint.CommitRuleDraft)

	r.GET("/triage/pending", endpoint.ListPendingPatients)
	r.POST("/triage/pending/:code/approve", endpoint.ApprovePendingPatient)
	r.DELETE("/triage/pending/:code", endpoint.RejectPendingPatient)
	r.GET("/triage/rule", endpoint.ListMatchRules)
	r.POST("/triage/rule", endpoint.SaveMatchRule)

	r.GET("/knowledge", endpoint.ListKnowledge)
	r.POST("/knowledge", endpoint.SaveKnowledge)
	r.DELETE("/knowledge/:code", endpoint.DeleteKnowledge)
	r.POST("/knowledge/import", endpoint.ImportKnowledge)

	r.GET("/form", endpoint.ListForms)

	r.GET("/user", endpoint.ListUsers)
	r.POST("/user", endpoint.SaveUser)
	r.POST("/user/:code/toggle", endpoint.ToggleUserStatus)
	r.GET("/user/:code/role", endpoint.GetUserRole)
	r.GET("/role", endpoint.ListRoles)

	r.GET("/profile", endpoint.GetProfile)
	r.PUT("/profile", endpoint.UpdateProfile)
	r.PUT("/profile/password", endpoint.UpdatePassword)

	r.GET("/dashboard/stats", endpoint.GetDashboardStats)

	t.Cleanup(func() {
		if err := db.Migrator().DropTable(testModels...); err != nil {
			t.Errorf("failed to drop tables during cleanup: %v", err)
		}
	})

	return r, db
}

// doRequest performs an HTTP request against the router. A nil body sends an
// empty request; any other body is JSON encoded.
func doRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *strings.Reader
	setJSONHeader := false
	switch v := body.(type) {
	case nil:
		reader = strings.NewReader("")
	case string:
		reader = strings.NewReader(v)
		setJSONHeader = true
	default:
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
		setJSONHeader = true
	}

	req := httptest.NewRequest(method, path, reader)
	if setJSONHeader {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// parseAPIResp decodes a standard API response from a ResponseRecorder.
// It fails the test on decoding error.
func parseAPIResp(t *testing.T, rr *httptest.ResponseRecorder) apiResp {
	var resp apiResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v; body: %s", err, rr.Body.String())
	}
	return resp
}

// parseDataToMap unmarshals an API response Data field into a map[string]interface{}.
func parseDataToMap(t *testing.T, raw json.RawMessage) map[string]interface{} {
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("parse data failed: %v", err)
	}
	return data
}

// getData performs a GET request and returns the decoded data map,
// failing the test on a non-200 response.
func getData(t *testing.T, r http.Handler, path string) map[string]interface{} {
	rr := doRequest(r, "GET", path, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET %s returned non-200: %d %s", path, rr.Code, rr.Body.String())
	}
	return parseDataToMap(t, parseAPIResp(t, rr).Data)
}

// assertTotal asserts the `total` field in list response data.
func assertTotal(t *testing.T, data map[string]interface{}, want int) {
	got := int(data["total"].(float64))
	if got != want {
		t.Errorf("expected total %d, got %d", want, got)
	}
}
