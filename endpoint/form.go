package endpoint

import (
	"github.com/gin-gonic/gin"
	"github.com/qiuyue/followup-center/model"
	"github.com/qiuyue/followup-center/util"
)

// ListForms godoc
// @Summary      List questionnaire form templates
// @Description  Optionally filtered by a keyword matched against name or category
// @Tags         Form
// @Accept       json
// @Produce      json
// @Param        keyword query string false "Substring to match"
// @Success      200 {object} util.APIResponse{data=object} "Forms retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /form [get]
func ListForms(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	var forms []model.FormTemplate
	if err := db.Order("form_templates.id ASC").Find(&forms).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve forms",
			Err: err,
		})
		return
	}

	filtered := model.FilterForms(forms, c.Query("keyword"))

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Forms retrieved",
		Data: map[string]interface{}{"total": len(filtered), "forms": filtered},
	})
}
