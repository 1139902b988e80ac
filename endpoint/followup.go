package endpoint

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiuyue/followup-center/model"
	"github.com/qiuyue/followup-center/util"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type executeFollowUpRequest struct {
	Mode         string     `json:"mode" example:"自动随访"`
	AutoSubMode  string     `json:"auto_sub_mode,omitempty" example:"robot"`
	ManualType   string     `json:"manual_type,omitempty" example:"电话"`
	Title        string     `json:"title,omitempty" example:"术后3月 随访"`
	Notes        string     `json:"notes,omitempty"`
	Score        int        `json:"score,omitempty" example:"90"`
	Answers      []model.QA `json:"answers,omitempty"`
	Status       string     `json:"status,omitempty" example:"随访中"`
	ContinuePlan bool       `json:"continue_plan"`
	NextFollowUp string     `json:"next_follow_up,omitempty" example:"2024-09-01"`
}

func buildFollowUpRecord(req executeFollowUpRequest, mode model.FollowUpMode) (model.FollowUpRecord, error) {
	title := req.Title
	if title == "" {
		label := "人工随访"
		if mode == model.ModeAuto {
			label = "自动随访"
		}
		title = fmt.Sprintf("%s %s", time.Now().Format("2006-01-02"), label)
	}

	record := model.FollowUpRecord{
		Code:      generateCode("REC"),
		Date:      time.Now().Format("2006-01-02"),
		Title:     title,
		Mode:      mode,
		Notes:     req.Notes,
		IsAIRobot: mode == model.ModeAuto && req.AutoSubMode == "robot",
		Score:     req.Score,
	}
	if len(req.Answers) > 0 {
		b, err := json.Marshal(req.Answers)
		if err != nil {
			return model.FollowUpRecord{}, fmt.Errorf("failed to encode answers: %w", err)
		}
		record.Answers = datatypes.JSON(b)
	}
	return record, nil
}

// ExecuteFollowUp godoc
// @Summary      Execute a follow-up task
// @Description  Record a completed follow-up contact for a patient and update the plan state
// @Tags         FollowUp
// @Accept       json
// @Produce      json
// @Param        code path string true "Patient code"
// @Param        request body executeFollowUpRequest true "Execution result"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Follow-up recorded"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{code}/followup [post]
func ExecuteFollowUp(c *gin.Context) {
	req := executeFollowUpRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	mode := model.FollowUpMode(req.Mode)
	if !model.ValidMode(mode) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Unknown follow-up mode",
			Err: fmt.Errorf("unknown follow-up mode: %q", req.Mode),
		})
		return
	}
	if req.Status != "" && !model.ValidStatus(model.FollowUpStatus(req.Status)) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Unknown follow-up status",
			Err: fmt.Errorf("unknown follow-up status: %q", req.Status),
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	patient, ok := getPatientByCode(c, db, false)
	if !ok {
		return
	}

	record, err := buildFollowUpRecord(req, mode)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to build follow-up record",
			Err: err,
		})
		return
	}
	record.PatientID = patient.ID

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		if req.Status != "" {
			patient.Status = model.FollowUpStatus(req.Status)
		}
		// Stopping the plan clears the scheduled date; continuing keeps the
		// existing date unless a new one is provided.
		if req.ContinuePlan {
			if req.NextFollowUp != "" {
				patient.NextFollowUp = req.NextFollowUp
			}
		} else {
			patient.NextFollowUp = ""
		}
		return tx.Save(&patient).Error
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to record follow-up",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventFollowUpExecuted,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   fmt.Sprintf("Follow-up %s recorded for patient %s", record.Code, patient.Code),
		Details:   map[string]interface{}{"mode": string(mode), "continue_plan": req.ContinuePlan},
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Follow-up recorded",
		Data: patient,
	})
}

// ListFollowUpRecords godoc
// @Summary      List a patient's follow-up history
// @Tags         FollowUp
// @Accept       json
// @Produce      json
// @Param        code path string true "Patient code"
// @Success      200 {object} util.APIResponse{data=object} "Records retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{code}/followup [get]
func ListFollowUpRecords(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	patient, ok := getPatientByCode(c, db, true)
	if !ok {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Records retrieved",
		Data: map[string]interface{}{"total": len(patient.Records), "records": patient.Records},
	})
}

// GetFollowUpRecord godoc
// @Summary      Get one follow-up record
// @Description  Get a single record including transcript and questionnaire answers
// @Tags         FollowUp
// @Accept       json
// @Produce      json
// @Param        code path string true "Patient code"
// @Param        rec path string true "Record code"
// @Success      200 {object} util.APIResponse{data=model.FollowUpRecord} "Record retrieved"
// @Failure      404 {object} util.APIResponse "Patient or record not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{code}/followup/{rec} [get]
func GetFollowUpRecord(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	patient, ok := getPatientByCode(c, db, false)
	if !ok {
		return
	}

	recCode, ok := requireParam(c, "rec", "Missing record code")
	if !ok {
		return
	}

	var record model.FollowUpRecord
	err := db.Where("patient_id = ? AND code = ?", patient.ID, recCode).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Follow-up record not found",
			Err: err,
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve record",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Record retrieved",
		Data: record,
	})
}
