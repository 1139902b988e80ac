package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account status values.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// UserAccount is a staff member account. Role is a weak reference to
// Role.Name; dangling role names are tolerated and resolve to no
// permissions.
type UserAccount struct {
	gorm.Model
	Code      string `json:"code" gorm:"uniqueIndex;size:32" example:"U001"`
	Username  string `json:"username" gorm:"size:64" example:"lin_zr"`
	Name      string `json:"name" example:"林主任"`
	Role      string `json:"role" example:"超级管理员"`
	Dept      string `json:"dept" example:"消化内科"`
	Status    string `json:"status" gorm:"size:16" example:"active"`
	LastLogin string `json:"last_login" example:"2024-05-21 10:30"`
	Password  string `json:"-"`
	Salt      string `json:"-"`
}

// PermissionAll is the wildcard permission key granting every capability.
const PermissionAll = "all"

// Permission is one grantable capability in the RBAC matrix.
type Permission struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// AllPermissions is the full permission catalog, in display order.
var AllPermissions = []Permission{
	{Key: "view_dashboard", Label: "统计驾驶舱查看"},
	{Key: "manage_patients", Label: "患者档案管理"},
	{Key: "execute_followup", Label: "随访执行录入"},
	{Key: "edit_rules", Label: "随访方案配置"},
	{Key: "manage_knowledge", Label: "知识库管理"},
	{Key: "export_data", Label: "敏感数据导出"},
	{Key: "system_config", Label: "系统参数设置"},
}

// Role groups permission keys under a name. Permissions is a JSON array of
// keys from AllPermissions, or the single sentinel "all".
type Role struct {
	gorm.Model
	Code        string         `json:"code" gorm:"uniqueIndex;size:32" example:"R1"`
	Name        string         `json:"name" gorm:"size:64" example:"超级管理员"`
	Permissions datatypes.JSON `json:"permissions" gorm:"type:json"`
}

// LookupRole resolves a user's weak role reference by role name.
// Empty or dangling names yield ok=false.
func LookupRole(db *gorm.DB, name string) (Role, bool, error) {
	if name == "" {
		return Role{}, false, nil
	}
	var role Role
	err := db.Where("name = ?", name).First(&role).Error
	if err == gorm.ErrRecordNotFound {
		return Role{}, false, nil
	}
	if err != nil {
		return Role{}, false, err
	}
	return role, true, nil
}

// Profile is the operating clinician's own card shown on the profile page.
// Exactly one row exists.
type Profile struct {
	gorm.Model
	Name     string `json:"name" example:"林主任"`
	Title    string `json:"title" example:"消化内科主任医师"`
	Dept     string `json:"dept" example:"消化内科一病区"`
	Phone    string `json:"phone" example:"138 0000 8888"`
	Email    string `json:"email" example:"lin.zhuren@hospital.com"`
	Location string `json:"location" example:"内镜中心 4楼 402室"`
	JoinDate string `json:"join_date" example:"2018-05-12"`
	Password string `json:"-"`
	Salt     string `json:"-"`
}
