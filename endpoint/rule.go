package endpoint

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/qiuyue/followup-center/model"
	"github.com/qiuyue/followup-center/util"
	"gorm.io/gorm"
)

func fetchRules(db *gorm.DB) ([]model.FollowUpRule, error) {
	var rules []model.FollowUpRule
	err := db.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("follow_up_stages.position ASC")
	}).Order("follow_up_rules.id ASC").Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// nextRuleCode derives the code for a newly published rule.
func nextRuleCode(db *gorm.DB) (string, error) {
	var count int64
	if err := db.Model(&model.FollowUpRule{}).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("R%03d", count+1), nil
}

// ListRules godoc
// @Summary      List follow-up rules
// @Tags         Rule
// @Accept       json
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Rules retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /rule [get]
func ListRules(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	rules, err := fetchRules(db)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve rules",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Rules retrieved",
		Data: map[string]interface{}{"total": len(rules), "rules": rules},
	})
}

func getRuleByCode(c *gin.Context, db *gorm.DB) (model.FollowUpRule, bool) {
	code, ok := requireParam(c, "code", "Missing rule code")
	if !ok {
		return model.FollowUpRule{}, false
	}

	var rule model.FollowUpRule
	err := db.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("follow_up_stages.position ASC")
	}).Where("code = ?", code).First(&rule).Error
	if err == gorm.ErrRecordNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Rule not found",
			Err: err,
		})
		return model.FollowUpRule{}, false
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve rule",
			Err: err,
		})
		return model.FollowUpRule{}, false
	}
	return rule, true
}

// GetRuleInfo godoc
// @Summary      Get one follow-up rule
// @Tags         Rule
// @Accept       json
// @Produce      json
// @Param        code path string true "Rule code"
// @Success      200 {object} util.APIResponse{data=model.FollowUpRule} "Rule retrieved"
// @Failure      404 {object} util.APIResponse "Rule not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /rule/{code} [get]
func GetRuleInfo(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	rule, ok := getRuleByCode(c, db)
	if !ok {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Rule retrieved",
		Data: rule,
	})
}

type saveRuleRequest struct {
	Code            string                `json:"code,omitempty" example:"R001"`
	Name            string                `json:"name" example:"ESD 术后标准随访"`
	DiseaseType     string                `json:"disease_type" example:"胃早癌"`
	IsAutoExecution bool                  `json:"is_auto_execution"`
	Stages          []model.FollowUpStage `json:"stages"`
}

// upsertRule publishes a rule. A matching code replaces the stored rule in
// place; otherwise a new rule is appended with a generated sequential code.
// Stages are committed (stable sort by offset) before persisting.
func upsertRule(db *gorm.DB, req saveRuleRequest) (model.FollowUpRule, error) {
	committed := model.CommitStages(req.Stages)
	for i := range committed {
		if committed[i].Code == "" {
			committed[i].Code = model.NewStageCode()
		}
		committed[i].ID = 0
		committed[i].RuleID = 0
	}

	var saved model.FollowUpRule
	err := db.Transaction(func(tx *gorm.DB) error {
		if req.Code != "" {
			var existing model.FollowUpRule
			err := tx.Where("code = ?", req.Code).First(&existing).Error
			if err == nil {
				existing.Name = req.Name
				existing.DiseaseType = req.DiseaseType
				existing.IsAutoExecution = req.IsAutoExecution
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
				if err := tx.Where("rule_id = ?", existing.ID).Delete(&model.FollowUpStage{}).Error; err != nil {
					return err
				}
				for i := range committed {
					committed[i].RuleID = existing.ID
					if err := tx.Create(&committed[i]).Error; err != nil {
						return err
					}
				}
				existing.Stages = committed
				saved = existing
				return nil
			}
			if err != gorm.ErrRecordNotFound {
				return err
			}
		}

		code := req.Code
		if code == "" {
			var err error
			code, err = nextRuleCode(tx)
			if err != nil {
				return err
			}
		}
		rule := model.FollowUpRule{
			Code:            code,
			Name:            req.Name,
			DiseaseType:     req.DiseaseType,
			IsAutoExecution: req.IsAutoExecution,
			Stages:          committed,
		}
		if err := tx.Create(&rule).Error; err != nil {
			return err
		}
		saved = rule
		return nil
	})
	return saved, err
}

// SaveRule godoc
// @Summary      Publish a follow-up rule
// @Description  Create or replace a rule; stages are sorted ascending by offset at save
// @Tags         Rule
// @Accept       json
// @Produce      json
// @Param        request body saveRuleRequest true "Rule definition"
// @Success      200 {object} util.APIResponse{data=model.FollowUpRule} "Rule published"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /rule [post]
func SaveRule(c *gin.Context) {
	req := saveRuleRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if req.Name == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Rule name is required",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	rule, err := upsertRule(db, req)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to save rule",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventRulePublished,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   fmt.Sprintf("Rule %s published", rule.Code),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Rule published",
		Data: rule,
	})
}

type openDraftRequest struct {
	RuleCode string `json:"rule_code,omitempty" example:"R001"`
}

// OpenRuleDraft godoc
// @Summary      Open a rule working copy
// @Description  Start an editing session from an existing rule, or blank with one default stage
// @Tags         Rule
// @Accept       json
// @Produce      json
// @Param        request body openDraftRequest true "Source rule (optional)"
// @Success      200 {object} util.APIResponse{data=util.RuleDraft} "Draft opened"
// @Failure      404 {object} util.APIResponse "Rule not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /rule/draft [post]
func OpenRuleDraft(c *gin.Context) {
	req := openDraftRequest{}
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

	draft := util.RuleDraft{ID: util.NewDraftID()}
	if req.RuleCode != "" {
		var rule model.FollowUpRule
		err := db.Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("follow_up_stages.position ASC")
		}).Where("code = ?", req.RuleCode).First(&rule).Error
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Rule not found",
				Err: err,
			})
			return
		}
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to retrieve rule",
				Err: err,
			})
			return
		}
		draft.RuleCode = rule.Code
		draft.Name = rule.Name
		draft.DiseaseType = rule.DiseaseType
		draft.IsAutoExecution = rule.IsAutoExecution
		draft.Stages = rule.Stages
	} else {
		draft.IsAutoExecution = true
		draft.Stages = []model.FollowUpStage{
			{Code: model.NewStageCode(), PeriodName: "术后1个月", OffsetDays: 30, TriggerLeadDays: 3, FormCode: "F1", FormName: "ESD 术后早期并发症筛查量表"},
		}
	}

	if err := util.SaveRuleDraft(c.Request.Context(), draft); err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to store draft",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Draft opened",
		Data: draft,
	})
}

func getDraft(c *gin.Context) (util.RuleDraft, bool) {
	id, ok := requireParam(c, "id", "Missing draft id")
	if !ok {
		return util.RuleDraft{}, false
	}

	draft, err := util.GetRuleDraft(c.Request.Context(), id)
	if err == util.ErrDraftNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Draft not found or expired",
			Err: err,
		})
		return util.RuleDraft{}, false
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to fetch draft",
			Err: err,
		})
		return util.RuleDraft{}, false
	}
	return draft, true
}

func saveDraftAndRespond(c *gin.Context, draft util.RuleDraft, msg string) {
	if err := util.SaveRuleDraft(c.Request.Context(), draft); err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to store draft",
			Err: err,
		})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  msg,
		Data: draft,
	})
}

// AppendDraftStage godoc
// @Summary      Append a stage to a working copy
// @Tags         Rule
// @Accept       json
// @Produce      json
// @Param        id path string true "Draft id"
// @Success      200 {object} util.APIResponse{data=util.RuleDraft} "Stage appended"
// @Failure      404 {object} util.APIResponse "Draft not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /rule/draft/{id}/stage [post]
func AppendDraftStage(c *gin.Context) {
	draft, ok := getDraft(c)
	if !ok {
		return
	}

	draft.Stages = model.AppendStage(draft.Stages)
	saveDraftAndRespond(c, draft, "Stage appended")
}

// RemoveDraftStage godoc
// @Summary      Remove a stage from a working copy
// @Description  Removing an unknown stage code leaves the draft unchanged
// @Tags         Rule
// @Accept       json
// @Produce      json
// @Param        id path string true "Draft id"
// @Param        stage path string true "Stage code"
// @Success      200 {object} util.APIResponse{data=util.RuleDraft} "Stage removed"
// @Failure      404 {object} util.APIResponse "Draft not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /rule/draft/{id}/stage/{stage} [delete]
func RemoveDraftStage(c *gin.Context) {
	draft, ok := getDraft(c)
	if !ok {
		return
	}

	stageCode, ok := requireParam(c, "stage", "Missing stage code")
	if !ok {
		return
	}

	draft.Stages = model.RemoveStage(draft.Stages, stageCode)
	saveDraftAndRespond(c, draft, "Stage removed")
}

type assignFormRequest struct {
	FormCode string `json:"form_code" example:"F2"`
}

// AssignDraftForm godoc
// @Summary      Attach a form template to a draft stage
// @Tags         Rule
// @Accept       json
// @Produce      json
// @Param        id path string true "Draft id"
// @Param        index path int true "Stage index (zero-based)"
// @Param        request body assignFormRequest true "Form template code"
// @Success      200 {object} util.APIResponse{data=util.RuleDraft} "Form assigned"
// @Failure      400 {object} util.APIResponse "Index out of range or unknown form"
// @Failure      404 {object} util.APIResponse "Draft not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /rule/draft/{id}/stage/{index}/form [put]
func AssignDraftForm(c *gin.Context) {
	draft, ok := getDraft(c)
	if !ok {
		return
	}

	idxRaw, ok := requireParam(c, "index", "Missing stage index")
	if !ok {
		return
	}
	idx, err := strconv.Atoi(idxRaw)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid stage index",
			Err: err,
		})
		return
	}

	req := assignFormRequest{}
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

	form, found, err := model.LookupFormTemplate(db, req.FormCode)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to look up form template",
			Err: err,
		})
		return
	}
	if !found {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Form template not found",
			Err: fmt.Errorf("unknown form code: %q", req.FormCode),
		})
		return
	}

	stages, err := model.AssignForm(draft.Stages, idx, form)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Stage index out of range",
			Err: err,
		})
		return
	}
	draft.Stages = stages
	saveDraftAndRespond(c, draft, "Form assigned")
}

type commitDraftRequest struct {
	Name            string `json:"name,omitempty" example:"ESD 术后标准随访"`
	DiseaseType     string `json:"disease_type,omitempty" example:"胃早癌"`
	IsAutoExecution *bool  `json:"is_auto_execution,omitempty"`
}

// CommitRuleDraft godoc
// @Summary      Commit a working copy
// @Description  Sort stages by offset, publish the rule and discard the draft
// @Tags         Rule
// @Accept       json
// @Produce      json
// @Param        id path string true "Draft id"
// @Param        request body commitDraftRequest true "Final rule attributes (optional overrides)"
// @Success      200 {object} util.APIResponse{data=model.FollowUpRule} "Rule published"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Draft not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /rule/draft/{id}/commit [post]
func CommitRuleDraft(c *gin.Context) {
	draft, ok := getDraft(c)
	if !ok {
		return
	}

	req := commitDraftRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if req.Name != "" {
		draft.Name = req.Name
	}
	if req.DiseaseType != "" {
		draft.DiseaseType = req.DiseaseType
	}
	if req.IsAutoExecution != nil {
		draft.IsAutoExecution = *req.IsAutoExecution
	}
	if draft.Name == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Rule name is required",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	rule, err := upsertRule(db, saveRuleRequest{
		Code:            draft.RuleCode,
		Name:            draft.Name,
		DiseaseType:     draft.DiseaseType,
		IsAutoExecution: draft.IsAutoExecution,
		Stages:          draft.Stages,
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to publish rule",
			Err: err,
		})
		return
	}

	if err := util.DeleteRuleDraft(c.Request.Context(), draft.ID); err != nil {
		// The rule is already published; a stale draft only lingers until
		// its TTL, so report success regardless.
		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventSuspiciousActivity,
			IP:        c.ClientIP(),
			Message:   fmt.Sprintf("Failed to discard committed draft %s: %v", draft.ID, err),
		})
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventRulePublished,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   fmt.Sprintf("Rule %s published from draft", rule.Code),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Rule published",
		Data: rule,
	})
}
