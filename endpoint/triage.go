package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/qiuyue/followup-center/model"
	"github.com/qiuyue/followup-center/util"
	"gorm.io/gorm"
)

// ListPendingPatients godoc
// @Summary      List candidates awaiting enrollment audit
// @Tags         Triage
// @Accept       json
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Pending patients retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /triage/pending [get]
func ListPendingPatients(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	var pending []model.PendingPatient
	if err := db.Order("pending_patients.id ASC").Find(&pending).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve pending patients",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Pending patients retrieved",
		Data: map[string]interface{}{"total": len(pending), "pending": pending},
	})
}

type approvePendingRequest struct {
	Force bool `json:"force"`
}

// ApprovePendingPatient godoc
// @Summary      Approve a triage candidate
// @Description  Confirm enrollment of a captured candidate. Refused with 412 when the
// @Description  consent form is unsigned, unless force is set by a supervising clinician.
// @Tags         Triage
// @Accept       json
// @Produce      json
// @Param        code path string true "Candidate code"
// @Param        request body approvePendingRequest true "Approval options"
// @Success      200 {object} util.APIResponse "Candidate approved"
// @Failure      404 {object} util.APIResponse "Candidate not found"
// @Failure      412 {object} util.APIResponse "Consent form not signed"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /triage/pending/{code}/approve [post]
func ApprovePendingPatient(c *gin.Context) {
	req := approvePendingRequest{}
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

	code, ok := requireParam(c, "code", "Missing candidate code")
	if !ok {
		return
	}

	var candidate model.PendingPatient
	err := db.Where("code = ?", code).First(&candidate).Error
	if err == gorm.ErrRecordNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Candidate not found",
			Err: err,
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve candidate",
			Err: err,
		})
		return
	}

	if !candidate.IsConsentSigned && !req.Force {
		util.CallPreconditionFailed(c, util.APIErrorParams{
			Msg: "Consent form not signed. Confirm with the patient or force enrollment.",
			Err: model.ErrConsentNotSigned,
		})
		return
	}

	if err := db.Delete(&candidate).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to approve candidate",
			Err: err,
		})
		return
	}

	reason := "approved"
	if req.Force {
		reason = "approved with forced consent override"
	}
	util.LogTriageDecision(util.EventTriageApproved, candidate.Code, c.ClientIP(), c.Request.UserAgent(), reason)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Candidate approved",
		Data: candidate,
	})
}

// RejectPendingPatient godoc
// @Summary      Reject a triage candidate
// @Description  Remove a captured candidate from the audit queue. Rejecting an
// @Description  unknown code is treated as already done.
// @Tags         Triage
// @Accept       json
// @Produce      json
// @Param        code path string true "Candidate code"
// @Success      200 {object} util.APIResponse "Candidate rejected"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /triage/pending/{code} [delete]
func RejectPendingPatient(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	code, ok := requireParam(c, "code", "Missing candidate code")
	if !ok {
		return
	}

	var candidate model.PendingPatient
	err := db.Where("code = ?", code).First(&candidate).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve candidate",
			Err: err,
		})
		return
	}
	if err == nil {
		if err := db.Delete(&candidate).Error; err != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to reject candidate",
				Err: err,
			})
			return
		}
		util.LogTriageDecision(util.EventTriageRejected, candidate.Code, c.ClientIP(), c.Request.UserAgent(), "rejected")
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Candidate rejected",
	})
}

// ListMatchRules godoc
// @Summary      List enrollment match rules
// @Description  Newest rules first
// @Tags         Triage
// @Accept       json
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Match rules retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /triage/rule [get]
func ListMatchRules(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	var rules []model.MatchRule
	if err := db.Order("match_rules.id DESC").Find(&rules).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve match rules",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Match rules retrieved",
		Data: map[string]interface{}{"total": len(rules), "rules": rules},
	})
}

type saveMatchRuleRequest struct {
	Code        string `json:"code,omitempty" example:"M001"`
	Title       string `json:"title" example:"高级别上皮内瘤变"`
	Type        string `json:"type" example:"病理关键词"`
	Expression  string `json:"expression"`
	TargetGroup string `json:"target_group" example:"早癌高危组"`
	Status      string `json:"status,omitempty" example:"active"`
}

// SaveMatchRule godoc
// @Summary      Create or update an enrollment match rule
// @Description  A matching code replaces the stored rule in place; otherwise a new rule is created
// @Tags         Triage
// @Accept       json
// @Produce      json
// @Param        request body saveMatchRuleRequest true "Match rule definition"
// @Success      200 {object} util.APIResponse{data=model.MatchRule} "Match rule saved"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /triage/rule [post]
func SaveMatchRule(c *gin.Context) {
	req := saveMatchRuleRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if req.Title == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Match rule title is required",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}
	if !model.ValidMatchType(model.MatchType(req.Type)) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Unknown match type",
			Err: fmt.Errorf("unknown match type: %q", req.Type),
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	status := req.Status
	if status == "" {
		status = "active"
	}

	var saved model.MatchRule
	if req.Code != "" {
		err := db.Where("code = ?", req.Code).First(&saved).Error
		if err == nil {
			saved.Title = req.Title
			saved.Type = model.MatchType(req.Type)
			saved.Expression = req.Expression
			saved.TargetGroup = req.TargetGroup
			saved.Status = status
			if err := db.Save(&saved).Error; err != nil {
				util.CallServerError(c, util.APIErrorParams{
					Msg: "Failed to save match rule",
					Err: err,
				})
				return
			}
			util.CallSuccessOK(c, util.APISuccessParams{
				Msg:  "Match rule saved",
				Data: saved,
			})
			return
		}
		if err != gorm.ErrRecordNotFound {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to look up match rule",
				Err: err,
			})
			return
		}
	}

	saved = model.MatchRule{
		Code:        req.Code,
		Title:       req.Title,
		Type:        model.MatchType(req.Type),
		Expression:  req.Expression,
		TargetGroup: req.TargetGroup,
		Status:      status,
	}
	if saved.Code == "" {
		saved.Code = generateCode("M")
	}
	if err := db.Create(&saved).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to save match rule",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Match rule saved",
		Data: saved,
	})
}
