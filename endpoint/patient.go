package endpoint

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/qiuyue/followup-center/model"
	"github.com/qiuyue/followup-center/util"
	"gorm.io/gorm"
)

// parsePatientFilter maps the list query parameters onto a model filter.
// The tab parameter is validated against the closed tab set.
func parsePatientFilter(c *gin.Context) (model.PatientFilter, error) {
	filter := model.PatientFilter{
		Keyword:       c.Query("keyword"),
		Gender:        c.Query("gender"),
		Diagnosis:     c.Query("diagnosis"),
		EnrollStart:   c.Query("enroll_start"),
		EnrollEnd:     c.Query("enroll_end"),
		FollowUpStart: c.Query("followup_start"),
		FollowUpEnd:   c.Query("followup_end"),
	}

	status, hasStatus, err := model.ResolveTab(c.Query("tab"))
	if err != nil {
		return model.PatientFilter{}, err
	}
	filter.Status = status
	filter.HasStatus = hasStatus

	if raw := c.Query("age_min"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return model.PatientFilter{}, fmt.Errorf("invalid age_min: %q", raw)
		}
		filter.AgeMin = v
		filter.HasAgeMin = true
	}
	if raw := c.Query("age_max"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return model.PatientFilter{}, fmt.Errorf("invalid age_max: %q", raw)
		}
		filter.AgeMax = v
		filter.HasAgeMax = true
	}
	return filter, nil
}

func fetchPatients(db *gorm.DB) ([]model.Patient, error) {
	var patients []model.Patient
	if err := db.Order("patients.id ASC").Find(&patients).Error; err != nil {
		return nil, err
	}
	return patients, nil
}

// ListPatients godoc
// @Summary      List patients
// @Description  Get the patient roster filtered by keyword, status tab and advanced criteria
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        keyword query string false "Substring of patient name or code (case-sensitive)"
// @Param        tab query string false "Status tab: 全部|待随访|随访中|已完成|待入组"
// @Param        gender query string false "Exact gender match"
// @Param        age_min query int false "Minimum age (inclusive)"
// @Param        age_max query int false "Maximum age (inclusive)"
// @Param        diagnosis query string false "Substring of the diagnosis text"
// @Param        enroll_start query string false "Earliest enroll date (YYYY-MM-DD)"
// @Param        enroll_end query string false "Latest enroll date (YYYY-MM-DD)"
// @Param        followup_start query string false "Earliest next follow-up date (YYYY-MM-DD)"
// @Param        followup_end query string false "Latest next follow-up date (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      400 {object} util.APIResponse "Invalid filter"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [get]
func ListPatients(c *gin.Context) {
	filter, err := parsePatientFilter(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid filter parameters",
			Err: err,
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	patients, err := fetchPatients(db)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patients",
			Err: err,
		})
		return
	}

	filtered := model.FilterPatients(patients, filter)
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients retrieved",
		Data: map[string]interface{}{"total": len(patients), "total_fetched": len(filtered), "patients": filtered},
	})
}

func getPatientByCode(c *gin.Context, db *gorm.DB, preloadRecords bool) (model.Patient, bool) {
	code, ok := requireParam(c, "code", "Missing patient code")
	if !ok {
		return model.Patient{}, false
	}

	query := db
	if preloadRecords {
		query = query.Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Order("follow_up_records.id ASC")
		})
	}

	var patient model.Patient
	if err := query.Where("code = ?", code).First(&patient).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Patient not found",
				Err: err,
			})
		} else {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to retrieve patient",
				Err: err,
			})
		}
		return model.Patient{}, false
	}
	return patient, true
}

// GetPatientInfo godoc
// @Summary      Get patient detail
// @Description  Get a patient's archive including follow-up history and the resolved follow-up rule
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        code path string true "Patient code"
// @Success      200 {object} util.APIResponse{data=object} "Patient retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{code} [get]
func GetPatientInfo(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	patient, ok := getPatientByCode(c, db, true)
	if !ok {
		return
	}

	data := map[string]interface{}{"patient": patient}
	// The assigned rule is a weak reference: a dangling code simply leaves
	// the detail without a resolved rule.
	if rule, found, err := model.LookupAssignedRule(db, patient.AssignedRuleCode); err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to resolve assigned rule",
			Err: err,
		})
		return
	} else if found {
		data["assigned_rule"] = rule
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient retrieved",
		Data: data,
	})
}

type createPatientRequest struct {
	Code            string `json:"code,omitempty" example:"P003"`
	Name            string `json:"name" example:"王*强"`
	Age             int    `json:"age" example:"61"`
	Gender          string `json:"gender" example:"男"`
	Phone           string `json:"phone" example:"137****6666"`
	Diagnosis       string `json:"diagnosis" example:"食管早癌"`
	Pathology       string `json:"pathology,omitempty"`
	SurgeryType     string `json:"surgery_type,omitempty" example:"ESD"`
	EnrollDate      string `json:"enroll_date" example:"2024-05-22"`
	Status          string `json:"status,omitempty" example:"待入组"`
	Mode            string `json:"mode,omitempty" example:"人工随访"`
	NextFollowUp    string `json:"next_follow_up,omitempty"`
	Department      string `json:"department,omitempty"`
	AssignedRule    string `json:"assigned_rule_code,omitempty"`
	IsConsentSigned bool   `json:"is_consent_signed"`
}

func buildPatientModel(req createPatientRequest) (model.Patient, error) {
	status := model.StatusUnenrolled
	if req.Status != "" {
		status = model.FollowUpStatus(req.Status)
		if !model.ValidStatus(status) {
			return model.Patient{}, fmt.Errorf("unknown follow-up status: %q", req.Status)
		}
	}
	mode := model.ModeManual
	if req.Mode != "" {
		mode = model.FollowUpMode(req.Mode)
		if !model.ValidMode(mode) {
			return model.Patient{}, fmt.Errorf("unknown follow-up mode: %q", req.Mode)
		}
	}

	code := req.Code
	if code == "" {
		code = generateCode("P")
	}

	return model.Patient{
		Code:             code,
		Name:             util.NormalizeName(req.Name),
		Age:              req.Age,
		Gender:           req.Gender,
		Phone:            req.Phone,
		Diagnosis:        req.Diagnosis,
		Pathology:        req.Pathology,
		SurgeryType:      req.SurgeryType,
		EnrollDate:       req.EnrollDate,
		Status:           status,
		Mode:             mode,
		NextFollowUp:     req.NextFollowUp,
		Department:       req.Department,
		AssignedRuleCode: req.AssignedRule,
		IsConsentSigned:  req.IsConsentSigned,
	}, nil
}

// CreatePatient godoc
// @Summary      Enroll a new patient
// @Description  Register a patient into the follow-up roster
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        request body createPatientRequest true "Patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient created"
// @Failure      400 {object} util.APIResponse "Invalid request or duplicate code"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [post]
func CreatePatient(c *gin.Context) {
	req := createPatientRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if req.Name == "" || req.Phone == "" || req.Diagnosis == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Patient payload is empty or missing required fields",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	patient, err := buildPatientModel(req)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid patient payload",
			Err: err,
		})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var existing model.Patient
		if err := tx.Where("code = ?", patient.Code).First(&existing).Error; err == nil {
			return fmt.Errorf("patient code already registered")
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
		return tx.Create(&patient).Error
	})
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Failed to create patient",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventPatientCreated,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   fmt.Sprintf("Patient %s enrolled", patient.Code),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient created",
		Data: patient,
	})
}

// UpdatePatient godoc
// @Summary      Update patient information
// @Description  Merge the provided fields into an existing patient archive
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        code path string true "Patient code"
// @Param        request body model.UpdatePatientRequest true "Updated patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient updated"
// @Failure      400 {object} util.APIResponse "Invalid request or patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{code} [patch]
func UpdatePatient(c *gin.Context) {
	code, ok := requireParam(c, "code", "Missing patient code")
	if !ok {
		return
	}

	req := model.UpdatePatientRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	var existing model.Patient
	if err := db.Where("code = ?", code).First(&existing).Error; err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Patient not found",
			Err: err,
		})
		return
	}

	if err := mergePatientUpdate(&existing, req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid patient payload",
			Err: err,
		})
		return
	}

	if err := db.Save(&existing).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update patient",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventPatientUpdated,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   fmt.Sprintf("Patient %s updated", existing.Code),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient updated",
		Data: existing,
	})
}

// mergePatientUpdate copies the provided fields onto the stored patient.
// Empty fields leave the stored values untouched.
func mergePatientUpdate(patient *model.Patient, req model.UpdatePatientRequest) error {
	if req.Name != "" {
		patient.Name = util.NormalizeName(req.Name)
	}
	if req.Age != 0 {
		patient.Age = req.Age
	}
	if req.Gender != "" {
		patient.Gender = req.Gender
	}
	if req.Phone != "" {
		patient.Phone = req.Phone
	}
	if req.Diagnosis != "" {
		patient.Diagnosis = req.Diagnosis
	}
	if req.Pathology != "" {
		patient.Pathology = req.Pathology
	}
	if req.SurgeryType != "" {
		patient.SurgeryType = req.SurgeryType
	}
	if req.EnrollDate != "" {
		patient.EnrollDate = req.EnrollDate
	}
	if req.Status != "" {
		status := model.FollowUpStatus(req.Status)
		if !model.ValidStatus(status) {
			return fmt.Errorf("unknown follow-up status: %q", req.Status)
		}
		patient.Status = status
	}
	if req.Mode != "" {
		mode := model.FollowUpMode(req.Mode)
		if !model.ValidMode(mode) {
			return fmt.Errorf("unknown follow-up mode: %q", req.Mode)
		}
		patient.Mode = mode
	}
	if req.NextFollowUp != "" {
		patient.NextFollowUp = req.NextFollowUp
	}
	if req.Department != "" {
		patient.Department = req.Department
	}
	if req.AssignedRuleCode != "" {
		patient.AssignedRuleCode = req.AssignedRuleCode
	}
	return nil
}
