package model

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPassword is assigned to seeded accounts until changed.
const DefaultPassword = "Admin@123"

// HashFunc hashes a plaintext password, returning the encoded hash and the
// salt used. Passed in by the caller so this package stays free of crypto
// imports.
type HashFunc func(password string) (hash string, salt string, err error)

// SeedAll loads the initial catalog into an empty database. Every record is
// keyed by its business code and skipped when already present, so the seed
// is safe to run at every startup.
func SeedAll(db *gorm.DB, hashPassword HashFunc) error {
	if err := seedPatients(db); err != nil {
		return err
	}
	if err := seedRules(db); err != nil {
		return err
	}
	if err := seedForms(db); err != nil {
		return err
	}
	if err := seedKnowledge(db); err != nil {
		return err
	}
	if err := seedMatchRules(db); err != nil {
		return err
	}
	if err := seedPendingPatients(db); err != nil {
		return err
	}
	if err := seedRoles(db); err != nil {
		return err
	}
	if err := seedUsers(db, hashPassword); err != nil {
		return err
	}
	if err := seedProfile(db, hashPassword); err != nil {
		return err
	}
	return seedWorkloads(db)
}

func mustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return datatypes.JSON(b)
}

func seedPatients(db *gorm.DB) error {
	patients := []Patient{
		{
			Code:             "P001",
			Name:             "张*伟",
			Age:              58,
			Gender:           "男",
			Phone:            "138****8888",
			Diagnosis:        "胃体早癌",
			Pathology:        "中分化腺癌，浸润至粘膜下层",
			SurgeryType:      "ESD",
			EnrollDate:       "2024-03-01",
			Status:           StatusPending,
			Mode:             ModeAuto,
			NextFollowUp:     "2024-06-01",
			Department:       "消化内科一病区",
			AssignedRuleCode: "R001",
			IsConsentSigned:  true,
			Records: []FollowUpRecord{
				{
					Code:  "REC001",
					Date:  "2024-04-10",
					Title: "术后1月 人工随访",
					Mode:  ModeManual,
					Notes: "人工电话沟通：患者反馈术后恢复良好，已恢复普通软食，无吞咽疼痛及反流现象。",
					Score: 95,
				},
				{
					Code:       "REC002",
					Date:       "2024-03-01",
					Title:      "术后一周 AI 随访",
					Mode:       ModeAuto,
					IsAIRobot:  true,
					Notes:      "AI机器人拨号。反馈轻微上腹痛，已告知注意事项并建议清淡饮食。",
					AudioURL:   "mock_audio_001.mp3",
					Transcript: "机器人：您好张先生，我是您的随访助手。请问您术后这一周感觉怎么样？\n张先生：感觉还行吧，就是肚子上面偶尔还有一点点隐隐作痛。\n机器人：收到您的反馈。术后初期轻微胀痛是正常的，请问您最近几天大便颜色正常吗？\n张先生：大便倒是挺正常的，不是黑色的。\n机器人：那太好了，请继续保持清淡饮食，避免辛辣刺激，如果有剧烈疼痛请及时就医。",
					Score:      88,
					Answers: mustJSON([]QA{
						{Q: "是否有黑便？", A: "否"},
						{Q: "腹痛程度（0-10）？", A: "2分"},
					}),
				},
			},
		},
		{
			Code:            "P002",
			Name:            "李*华",
			Age:             45,
			Gender:          "女",
			Phone:           "139****7777",
			Diagnosis:       "结肠息肉",
			Pathology:       "绒毛状腺瘤，低级别上皮内瘤变",
			SurgeryType:     "EMR",
			EnrollDate:      "2024-04-15",
			Status:          StatusCompleted,
			Mode:            ModeManual,
			NextFollowUp:    "2025-04-15",
			Department:      "消化内科二病区",
			IsConsentSigned: true,
		},
	}

	for _, patient := range patients {
		var existing Patient
		err := db.Where("code = ?", patient.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&patient).Error; err != nil {
			return fmt.Errorf("failed to seed patient %s: %w", patient.Code, err)
		}
	}
	return nil
}

func seedRules(db *gorm.DB) error {
	rules := []FollowUpRule{
		{
			Code:            "R001",
			Name:            "早癌 (ESD) 术后全生命周期随访方案",
			DiseaseType:     "胃早癌",
			IsAutoExecution: true,
			Stages: []FollowUpStage{
				{Code: "S1", PeriodName: "术后1个月", OffsetDays: 30, TriggerLeadDays: 3, FormCode: "F1", FormName: "术后早期并发症筛查量表", Description: "重点关注术后出血、狭窄及创面愈合情况", Position: 0},
				{Code: "S2", PeriodName: "术后3个月", OffsetDays: 90, TriggerLeadDays: 7, FormCode: "F2", FormName: "消化道症状恢复评估", Description: "评估饮食恢复程度及营养状态", Position: 1},
				{Code: "S3", PeriodName: "术后6个月", OffsetDays: 180, TriggerLeadDays: 7, FormCode: "F2", FormName: "内镜复查提醒与量表", Description: "提示入院复查内镜", Position: 2},
				{Code: "S4", PeriodName: "术后1年", OffsetDays: 365, TriggerLeadDays: 14, FormCode: "F3", FormName: "长期生存质量评估", Description: "关注远期复发风险", Position: 3},
			},
		},
		{
			Code:            "R002",
			Name:            "结直肠息肉切除后常规复查路径",
			DiseaseType:     "结肠息肉",
			IsAutoExecution: true,
			Stages: []FollowUpStage{
				{Code: "S5", PeriodName: "术后1年", OffsetDays: 365, TriggerLeadDays: 15, FormCode: "F4", FormName: "肠道准备与复查通知", Description: "标准化肠道准备宣教", Position: 0},
				{Code: "S6", PeriodName: "术后3年", OffsetDays: 1095, TriggerLeadDays: 30, FormCode: "F4", FormName: "远期复发监测", Description: "间期癌风险评估", Position: 1},
			},
		},
	}

	for _, rule := range rules {
		var existing FollowUpRule
		err := db.Where("code = ?", rule.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&rule).Error; err != nil {
			return fmt.Errorf("failed to seed rule %s: %w", rule.Code, err)
		}
	}
	return nil
}

func seedForms(db *gorm.DB) error {
	forms := []FormTemplate{
		{Code: "F1", Name: "ESD 术后早期并发症筛查量表", Category: "并发症筛查", Usage: 125, UpdateDate: "2024-03-20"},
		{Code: "F2", Name: "消化道症状恢复评估 (VAS 评分)", Category: "恢复评估", Usage: 89, UpdateDate: "2024-04-05"},
		{Code: "F3", Name: "早癌术后一个月专项调查问卷", Category: "专项随访", Usage: 56, UpdateDate: "2024-05-10"},
		{Code: "F4", Name: "内镜复查预约及准备宣教告知书", Category: "复查告知", Usage: 210, UpdateDate: "2024-02-15"},
		{Code: "F5", Name: "患者术后生活质量 (QoL) 综合评估", Category: "生活质量", Usage: 42, UpdateDate: "2024-05-12"},
		{Code: "F6", Name: "幽门螺杆菌 (Hp) 根除治疗随访表", Category: "专项随访", Usage: 77, UpdateDate: "2024-01-20"},
	}

	for _, form := range forms {
		var existing FormTemplate
		err := db.Where("code = ?", form.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&form).Error; err != nil {
			return fmt.Errorf("failed to seed form %s: %w", form.Code, err)
		}
	}
	return nil
}

func seedKnowledge(db *gorm.DB) error {
	// Inserted oldest-first so newest-first listings show K001 on top.
	items := []KnowledgeItem{
		{Code: "K003", Title: "胃早癌术后一周 AI 随访话术", Author: "AI 实验室", Date: "2024-05-10", Usage: 32, Type: KnowledgeSpeech, VoiceType: "女声-亲和型", Content: "[开场白] 您好，我是XX医院的随访助手，打扰您一分钟...\n[主体问询] 请问您最近吃饭怎么样？肚子有没有痛？...\n[结束语] 好的，请您按时吃药，祝您早日康复。"},
		{Code: "K002", Title: "胃息肉切除术后宣教内容", Author: "内镜中心", Date: "2024-04-05", Usage: 120, Type: KnowledgeArticle, Content: "术后一周内禁烟酒，建议半流质饮食..."},
		{Code: "K001", Title: "ESD 术后 1 个月恢复评估量表", Author: "消化一科", Date: "2024-03-20", Usage: 45, Type: KnowledgeQuestionnaire, Content: "Q1: 您是否有腹痛？\nQ2: 每天排便次数？\nQ3: 是否有黑便或粘液便？"},
	}

	for _, item := range items {
		var existing KnowledgeItem
		err := db.Where("code = ?", item.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to seed knowledge asset %s: %w", item.Code, err)
		}
	}
	return nil
}

func seedMatchRules(db *gorm.DB) error {
	// Inserted oldest-first so newest-first listings show M001 on top.
	rules := []MatchRule{
		{Code: "M003", Title: "萎缩性胃炎逻辑", Type: MatchICD10, Expression: "诊断码: K29.400 (慢性萎缩性胃炎)", TargetGroup: "常规监测组", Status: "active"},
		{Code: "M002", Title: "ESD 手术分流", Type: MatchSurgeryCode, Expression: "代码匹配: 43.41x (内镜下黏膜剥离术)", TargetGroup: "ESD 术后组", Status: "active"},
		{Code: "M001", Title: "高级别上皮内瘤变", Type: MatchPathologyKeyword, Expression: "文本包含: \"高级别上皮内瘤变\" OR \"腺癌\"", TargetGroup: "早癌高危组", Status: "active"},
	}

	for _, rule := range rules {
		var existing MatchRule
		err := db.Where("code = ?", rule.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&rule).Error; err != nil {
			return fmt.Errorf("failed to seed match rule %s: %w", rule.Code, err)
		}
	}
	return nil
}

func seedPendingPatients(db *gorm.DB) error {
	pending := []PendingPatient{
		{Code: "T001", Name: "赵*刚", Age: 58, Gender: "男", Diagnosis: "胃体早癌", MatchReason: "病理检测到“异型增生”", MatchType: MatchPathologyKeyword, IsConsentSigned: true, CapturedAt: "2024-05-20 09:15"},
		{Code: "T002", Name: "孙*梅", Age: 45, Gender: "女", Diagnosis: "结肠息肉", MatchReason: "手术收费代码：43.41x", MatchType: MatchSurgeryCode, IsConsentSigned: true, CapturedAt: "2024-05-20 09:15"},
		{Code: "T003", Name: "周*生", Age: 62, Gender: "男", Diagnosis: "慢性萎缩性胃炎伴中度肠化", MatchReason: "ICD-10: K29.4", MatchType: MatchICD10, IsConsentSigned: false, CapturedAt: "2024-05-20 09:15"},
	}

	for _, candidate := range pending {
		var existing PendingPatient
		err := db.Where("code = ?", candidate.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&candidate).Error; err != nil {
			return fmt.Errorf("failed to seed pending patient %s: %w", candidate.Code, err)
		}
	}
	return nil
}

func seedRoles(db *gorm.DB) error {
	roles := []Role{
		{Code: "R1", Name: "超级管理员", Permissions: mustJSON([]string{PermissionAll})},
		{Code: "R2", Name: "临床医生", Permissions: mustJSON([]string{"view_dashboard", "manage_patients", "view_knowledge"})},
		{Code: "R3", Name: "随访员/护士", Permissions: mustJSON([]string{"view_dashboard", "manage_patients", "execute_followup", "view_knowledge"})},
		{Code: "R4", Name: "数据分析员", Permissions: mustJSON([]string{"view_dashboard", "export_data"})},
	}

	for _, role := range roles {
		var existing Role
		err := db.Where("code = ?", role.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
	}
	return nil
}

func seedUsers(db *gorm.DB, hashPassword HashFunc) error {
	// Inserted oldest-first so newest-first listings show U001 on top.
	users := []UserAccount{
		{Code: "U004", Username: "li_fx", Name: "李分析", Role: "数据分析员", Dept: "质控科", Status: UserStatusDisabled, LastLogin: "2024-04-12 11:00"},
		{Code: "U003", Username: "zhang_hs", Name: "张护士", Role: "随访员/护士", Dept: "消化内科", Status: UserStatusActive, LastLogin: "2024-05-21 08:45"},
		{Code: "U002", Username: "wang_ys", Name: "王医生", Role: "临床医生", Dept: "内镜中心", Status: UserStatusActive, LastLogin: "2024-05-20 15:20"},
		{Code: "U001", Username: "lin_zr", Name: "林主任", Role: "超级管理员", Dept: "消化内科", Status: UserStatusActive, LastLogin: "2024-05-21 10:30"},
	}

	for _, user := range users {
		var existing UserAccount
		err := db.Where("code = ?", user.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		hash, salt, err := hashPassword(DefaultPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", user.Code, err)
		}
		user.Password = hash
		user.Salt = salt
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", user.Code, err)
		}
	}
	return nil
}

func seedProfile(db *gorm.DB, hashPassword HashFunc) error {
	var existing Profile
	err := db.First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hash, salt, err := hashPassword(DefaultPassword)
	if err != nil {
		return fmt.Errorf("failed to hash profile password: %w", err)
	}
	profile := Profile{
		Name:     "林主任",
		Title:    "消化内科主任医师",
		Dept:     "消化内科一病区",
		Phone:    "138 0000 8888",
		Email:    "lin.zhuren@hospital.com",
		Location: "内镜中心 4楼 402室",
		JoinDate: "2018-05-12",
		Password: hash,
		Salt:     salt,
	}
	if err := db.Create(&profile).Error; err != nil {
		return fmt.Errorf("failed to seed profile: %w", err)
	}
	return nil
}

func seedWorkloads(db *gorm.DB) error {
	workloads := []StaffWorkload{
		{Name: "林主任", Dept: "消化内科", Total: 157, Completed: 145, Overdue: 4},
		{Name: "王医生", Dept: "内镜中心", Total: 103, Completed: 98, Overdue: 1},
		{Name: "张医生", Dept: "消化内科", Total: 91, Completed: 76, Overdue: 8},
		{Name: "李护士", Dept: "随访中心", Total: 218, Completed: 210, Overdue: 2},
	}

	for _, w := range workloads {
		var existing StaffWorkload
		err := db.Where("name = ?", w.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&w).Error; err != nil {
			return fmt.Errorf("failed to seed workload row %s: %w", w.Name, err)
		}
	}
	return nil
}
