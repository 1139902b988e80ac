package endpoint

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiuyue/followup-center/model"
	"github.com/qiuyue/followup-center/util"
	"gorm.io/gorm"
)

// importDelay simulates the latency of pulling assets from the hospital
// knowledge platform.
var importDelay = 1200 * time.Millisecond

// ListKnowledge godoc
// @Summary      List knowledge base assets
// @Description  Optionally filtered by category; newest assets first
// @Tags         Knowledge
// @Accept       json
// @Produce      json
// @Param        type query string false "Asset category" Enums(questionnaire, article, terms, speech)
// @Success      200 {object} util.APIResponse{data=object} "Assets retrieved"
// @Failure      400 {object} util.APIResponse "Unknown category"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /knowledge [get]
func ListKnowledge(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	query := db.Order("knowledge_items.id DESC")
	if raw := c.Query("type"); raw != "" {
		t := model.KnowledgeType(raw)
		if !model.ValidKnowledgeType(t) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Unknown knowledge type",
				Err: fmt.Errorf("unknown knowledge type: %q", raw),
			})
			return
		}
		query = query.Where("type = ?", t)
	}

	var items []model.KnowledgeItem
	if err := query.Find(&items).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve knowledge assets",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Assets retrieved",
		Data: map[string]interface{}{"total": len(items), "items": items},
	})
}

type saveKnowledgeRequest struct {
	Code      string `json:"code,omitempty" example:"K001"`
	Title     string `json:"title" example:"ESD 术后 1 个月恢复评估量表"`
	Author    string `json:"author,omitempty" example:"消化一科"`
	Date      string `json:"date,omitempty" example:"2024-03-20"`
	Type      string `json:"type" example:"questionnaire"`
	Content   string `json:"content,omitempty"`
	VoiceType string `json:"voice_type,omitempty" example:"女声-亲和型"`
}

// SaveKnowledge godoc
// @Summary      Create or update a knowledge asset
// @Description  A matching code replaces the stored asset in place; otherwise a new asset is created
// @Tags         Knowledge
// @Accept       json
// @Produce      json
// @Param        request body saveKnowledgeRequest true "Asset definition"
// @Success      200 {object} util.APIResponse{data=model.KnowledgeItem} "Asset saved"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /knowledge [post]
func SaveKnowledge(c *gin.Context) {
	req := saveKnowledgeRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if req.Title == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Asset title is required",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}
	if !model.ValidKnowledgeType(model.KnowledgeType(req.Type)) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Unknown knowledge type",
			Err: fmt.Errorf("unknown knowledge type: %q", req.Type),
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	var saved model.KnowledgeItem
	if req.Code != "" {
		err := db.Where("code = ?", req.Code).First(&saved).Error
		if err == nil {
			saved.Title = req.Title
			saved.Author = req.Author
			saved.Date = date
			saved.Type = model.KnowledgeType(req.Type)
			saved.Content = req.Content
			saved.VoiceType = req.VoiceType
			if err := db.Save(&saved).Error; err != nil {
				util.CallServerError(c, util.APIErrorParams{
					Msg: "Failed to save asset",
					Err: err,
				})
				return
			}
			util.CallSuccessOK(c, util.APISuccessParams{
				Msg:  "Asset saved",
				Data: saved,
			})
			return
		}
		if err != gorm.ErrRecordNotFound {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to look up asset",
				Err: err,
			})
			return
		}
	}

	saved = model.KnowledgeItem{
		Code:      req.Code,
		Title:     req.Title,
		Author:    req.Author,
		Date:      date,
		Type:      model.KnowledgeType(req.Type),
		Content:   req.Content,
		VoiceType: req.VoiceType,
	}
	if saved.Code == "" {
		saved.Code = generateCode("K")
	}
	if err := db.Create(&saved).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to save asset",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Asset saved",
		Data: saved,
	})
}

// DeleteKnowledge godoc
// @Summary      Delete a knowledge asset
// @Description  Deleting an unknown code is treated as already done
// @Tags         Knowledge
// @Accept       json
// @Produce      json
// @Param        code path string true "Asset code"
// @Success      200 {object} util.APIResponse "Asset deleted"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /knowledge/{code} [delete]
func DeleteKnowledge(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	code, ok := requireParam(c, "code", "Missing asset code")
	if !ok {
		return
	}

	var item model.KnowledgeItem
	err := db.Where("code = ?", code).First(&item).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to look up asset",
			Err: err,
		})
		return
	}
	if err == nil {
		if err := db.Delete(&item).Error; err != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to delete asset",
				Err: err,
			})
			return
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Asset deleted",
	})
}

type importKnowledgeRequest struct {
	Type string `json:"type,omitempty" example:"article"`
}

// ImportKnowledge godoc
// @Summary      Import assets from the hospital knowledge platform
// @Description  Accepts the request immediately; the imported asset appears after the sync completes
// @Tags         Knowledge
// @Accept       json
// @Produce      json
// @Param        request body importKnowledgeRequest true "Import target category (optional)"
// @Success      200 {object} util.APIResponse "Import started"
// @Failure      400 {object} util.APIResponse "Unknown category"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /knowledge/import [post]
func ImportKnowledge(c *gin.Context) {
	req := importKnowledgeRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	target := model.KnowledgeArticle
	if req.Type != "" {
		target = model.KnowledgeType(req.Type)
		if !model.ValidKnowledgeType(target) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Unknown knowledge type",
				Err: fmt.Errorf("unknown knowledge type: %q", req.Type),
			})
			return
		}
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	ip := c.ClientIP()
	userAgent := c.Request.UserAgent()

	go func(db *gorm.DB, target model.KnowledgeType) {
		time.Sleep(importDelay)

		item := model.KnowledgeItem{
			Code:   generateCode("K"),
			Title:  "新导入外部结构化资产",
			Author: "系统同步",
			Date:   time.Now().Format("2006-01-02"),
			Type:   target,
		}
		if err := db.Create(&item).Error; err != nil {
			util.LogAuditEvent(util.AuditEvent{
				EventType: util.EventSuspiciousActivity,
				IP:        ip,
				Message:   fmt.Sprintf("Knowledge import failed: %v", err),
			})
			return
		}

		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventKnowledgeImported,
			IP:        ip,
			UserAgent: userAgent,
			Message:   fmt.Sprintf("Imported asset %s into category %s", item.Code, target),
		})
	}(db.Session(&gorm.Session{NewDB: true}), target)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Import started",
	})
}
