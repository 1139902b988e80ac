package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/qiuyue/followup-center/model"
	"github.com/qiuyue/followup-center/util"
	"gorm.io/gorm"
)

func getProfile(c *gin.Context, db *gorm.DB) (model.Profile, bool) {
	var profile model.Profile
	err := db.First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Profile not found",
			Err: err,
		})
		return model.Profile{}, false
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve profile",
			Err: err,
		})
		return model.Profile{}, false
	}
	return profile, true
}

// GetProfile godoc
// @Summary      Get the operating clinician's profile
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Success      200 {object} util.APIResponse{data=model.Profile} "Profile retrieved"
// @Failure      404 {object} util.APIResponse "Profile not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /profile [get]
func GetProfile(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	profile, ok := getProfile(c, db)
	if !ok {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Profile retrieved",
		Data: profile,
	})
}

type updateProfileRequest struct {
	Name     string `json:"name,omitempty" example:"林主任"`
	Title    string `json:"title,omitempty" example:"消化内科主任医师"`
	Dept     string `json:"dept,omitempty" example:"消化内科一病区"`
	Phone    string `json:"phone,omitempty" example:"138 0000 8888"`
	Email    string `json:"email,omitempty" example:"lin.zhuren@hospital.com"`
	Location string `json:"location,omitempty" example:"内镜中心 4楼 402室"`
}

// UpdateProfile godoc
// @Summary      Update the operating clinician's profile
// @Description  Only provided fields are changed
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Param        request body updateProfileRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.Profile} "Profile updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Profile not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /profile [put]
func UpdateProfile(c *gin.Context) {
	req := updateProfileRequest{}
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

	profile, ok := getProfile(c, db)
	if !ok {
		return
	}

	if req.Name != "" {
		profile.Name = util.NormalizeName(req.Name)
	}
	if req.Title != "" {
		profile.Title = req.Title
	}
	if req.Dept != "" {
		profile.Dept = req.Dept
	}
	if req.Phone != "" {
		profile.Phone = req.Phone
	}
	if req.Email != "" {
		profile.Email = req.Email
	}
	if req.Location != "" {
		profile.Location = req.Location
	}

	if err := db.Save(&profile).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update profile",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Profile updated",
		Data: profile,
	})
}

type updatePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UpdatePassword godoc
// @Summary      Change the operating clinician's password
// @Description  Requires the current password; the new password must be entered twice
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Param        request body updatePasswordRequest true "Password change"
// @Success      200 {object} util.APIResponse "Password updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Profile not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /profile/password [put]
func UpdatePassword(c *gin.Context) {
	req := updatePasswordRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if req.NewPassword == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "New password is required",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "New passwords do not match",
			Err: fmt.Errorf("password confirmation mismatch"),
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	profile, ok := getProfile(c, db)
	if !ok {
		return
	}

	if !util.VerifyPassword(req.OldPassword, profile.Salt, profile.Password) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Current password is incorrect",
			Err: fmt.Errorf("password verification failed"),
		})
		return
	}

	hash, salt, err := util.HashNewPassword(req.NewPassword)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to hash password",
			Err: err,
		})
		return
	}

	profile.Password = hash
	profile.Salt = salt
	if err := db.Save(&profile).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update password",
			Err: err,
		})
		return
	}

	util.LogPasswordChanged(profile.Name, c.ClientIP(), c.Request.UserAgent())

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Password updated",
	})
}
