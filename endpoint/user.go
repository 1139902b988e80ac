package endpoint

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/qiuyue/followup-center/model"
	"github.com/qiuyue/followup-center/util"
	"gorm.io/gorm"
)

// ListUsers godoc
// @Summary      List staff accounts
// @Description  Optionally filtered by a keyword matched against name or username; newest first
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        keyword query string false "Substring to match"
// @Success      200 {object} util.APIResponse{data=object} "Users retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /user [get]
func ListUsers(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	var users []model.UserAccount
	if err := db.Order("user_accounts.id DESC").Find(&users).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve users",
			Err: err,
		})
		return
	}

	keyword := c.Query("keyword")
	filtered := make([]model.UserAccount, 0, len(users))
	for _, u := range users {
		if keyword == "" || strings.Contains(u.Name, keyword) || strings.Contains(u.Username, keyword) {
			filtered = append(filtered, u)
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Users retrieved",
		Data: map[string]interface{}{"total": len(filtered), "users": filtered},
	})
}

type saveUserRequest struct {
	Code     string `json:"code,omitempty" example:"U001"`
	Username string `json:"username" example:"lin_zr"`
	Name     string `json:"name" example:"林主任"`
	Role     string `json:"role,omitempty" example:"临床医生"`
	Dept     string `json:"dept,omitempty" example:"消化内科"`
	Status   string `json:"status,omitempty" example:"active"`
}

// SaveUser godoc
// @Summary      Create or update a staff account
// @Description  A matching code replaces the stored account in place; otherwise a new
// @Description  account is created with the default initial password
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body saveUserRequest true "Account definition"
// @Success      200 {object} util.APIResponse{data=model.UserAccount} "User saved"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /user [post]
func SaveUser(c *gin.Context) {
	req := saveUserRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if req.Name == "" || req.Username == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Name and username are required",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}
	if req.Status != "" && req.Status != model.UserStatusActive && req.Status != model.UserStatusDisabled {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Unknown account status",
			Err: fmt.Errorf("unknown account status: %q", req.Status),
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	var saved model.UserAccount
	if req.Code != "" {
		err := db.Where("code = ?", req.Code).First(&saved).Error
		if err == nil {
			saved.Username = req.Username
			saved.Name = req.Name
			saved.Role = req.Role
			saved.Dept = req.Dept
			if req.Status != "" {
				saved.Status = req.Status
			}
			if err := db.Save(&saved).Error; err != nil {
				util.CallServerError(c, util.APIErrorParams{
					Msg: "Failed to save user",
					Err: err,
				})
				return
			}
			util.CallSuccessOK(c, util.APISuccessParams{
				Msg:  "User saved",
				Data: saved,
			})
			return
		}
		if err != gorm.ErrRecordNotFound {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to look up user",
				Err: err,
			})
			return
		}
	}

	hash, salt, err := util.HashNewPassword(model.DefaultPassword)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to initialize account credentials",
			Err: err,
		})
		return
	}

	status := req.Status
	if status == "" {
		status = model.UserStatusActive
	}
	saved = model.UserAccount{
		Code:     req.Code,
		Username: req.Username,
		Name:     req.Name,
		Role:     req.Role,
		Dept:     req.Dept,
		Status:   status,
		Password: hash,
		Salt:     salt,
	}
	if saved.Code == "" {
		saved.Code = generateCode("U")
	}
	if err := db.Create(&saved).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to save user",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "User saved",
		Data: saved,
	})
}

// ToggleUserStatus godoc
// @Summary      Enable or disable a staff account
// @Description  Flips the account between active and disabled. Unknown codes are
// @Description  treated as already done.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        code path string true "Account code"
// @Success      200 {object} util.APIResponse "Status toggled"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /user/{code}/toggle [post]
func ToggleUserStatus(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	code, ok := requireParam(c, "code", "Missing account code")
	if !ok {
		return
	}

	var user model.UserAccount
	err := db.Where("code = ?", code).First(&user).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to look up user",
			Err: err,
		})
		return
	}
	if err == gorm.ErrRecordNotFound {
		util.CallSuccessOK(c, util.APISuccessParams{
			Msg: "Status toggled",
		})
		return
	}

	if user.Status == model.UserStatusActive {
		user.Status = model.UserStatusDisabled
	} else {
		user.Status = model.UserStatusActive
	}
	if err := db.Save(&user).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to toggle status",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Status toggled",
		Data: user,
	})
}

// ListRoles godoc
// @Summary      List roles and the permission matrix
// @Tags         User
// @Accept       json
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Roles retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /role [get]
func ListRoles(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	var roles []model.Role
	if err := db.Order("roles.id ASC").Find(&roles).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve roles",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Roles retrieved",
		Data: map[string]interface{}{
			"total":       len(roles),
			"roles":       roles,
			"permissions": model.AllPermissions,
		},
	})
}

// GetUserRole godoc
// @Summary      Resolve one account's role
// @Description  A dangling or empty role reference resolves to no permissions
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        code path string true "Account code"
// @Success      200 {object} util.APIResponse{data=object} "Role resolved"
// @Failure      404 {object} util.APIResponse "User not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /user/{code}/role [get]
func GetUserRole(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	code, ok := requireParam(c, "code", "Missing account code")
	if !ok {
		return
	}

	var user model.UserAccount
	err := db.Where("code = ?", code).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "User not found",
			Err: err,
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to look up user",
			Err: err,
		})
		return
	}

	role, found, err := model.LookupRole(db, user.Role)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to resolve role",
			Err: err,
		})
		return
	}

	data := map[string]interface{}{"user": user, "resolved": found}
	if found {
		data["role"] = role
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Role resolved",
		Data: data,
	})
}
