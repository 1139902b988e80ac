package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func fakeHash(password string) (string, string, error) {
	return "hash:" + password, "salt", nil
}

func setupSeedTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&Patient{}, &FollowUpRecord{}, &FollowUpRule{}, &FollowUpStage{},
		&FormTemplate{}, &KnowledgeItem{}, &MatchRule{}, &PendingPatient{},
		&UserAccount{}, &Role{}, &Profile{}, &StaffWorkload{},
	)
	assert.NoError(t, err)

	t.Cleanup(func() {
		db.Migrator().DropTable(
			&Patient{}, &FollowUpRecord{}, &FollowUpRule{}, &FollowUpStage{},
			&FormTemplate{}, &KnowledgeItem{}, &MatchRule{}, &PendingPatient{},
			&UserAccount{}, &Role{}, &Profile{}, &StaffWorkload{},
		)
	})

	return db
}

func TestSeedAll_PopulatesReferenceData(t *testing.T) {
	db := setupSeedTestDB(t)

	err := SeedAll(db, fakeHash)
	assert.NoError(t, err)

	var patients int64
	db.Model(&Patient{}).Count(&patients)
	assert.EqualValues(t, 2, patients)

	var rules int64
	db.Model(&FollowUpRule{}).Count(&rules)
	assert.EqualValues(t, 2, rules)

	var stages int64
	db.Model(&FollowUpStage{}).Count(&stages)
	assert.EqualValues(t, 6, stages)

	var forms int64
	db.Model(&FormTemplate{}).Count(&forms)
	assert.EqualValues(t, 6, forms)

	var pending int64
	db.Model(&PendingPatient{}).Count(&pending)
	assert.EqualValues(t, 3, pending)

	var users int64
	db.Model(&UserAccount{}).Count(&users)
	assert.EqualValues(t, 4, users)

	var profiles int64
	db.Model(&Profile{}).Count(&profiles)
	assert.EqualValues(t, 1, profiles)
}

func TestSeedAll_Idempotent(t *testing.T) {
	db := setupSeedTestDB(t)

	assert.NoError(t, SeedAll(db, fakeHash))
	assert.NoError(t, SeedAll(db, fakeHash))

	var patients int64
	db.Model(&Patient{}).Count(&patients)
	assert.EqualValues(t, 2, patients)

	var knowledge int64
	db.Model(&KnowledgeItem{}).Count(&knowledge)
	assert.EqualValues(t, 3, knowledge)

	var roles int64
	db.Model(&Role{}).Count(&roles)
	assert.EqualValues(t, 4, roles)
}

func TestSeedAll_UsersGetHashedDefaultPassword(t *testing.T) {
	db := setupSeedTestDB(t)

	assert.NoError(t, SeedAll(db, fakeHash))

	var user UserAccount
	err := db.Where("code = ?", "U001").First(&user).Error
	assert.NoError(t, err)
	assert.Equal(t, "hash:"+DefaultPassword, user.Password)
	assert.Equal(t, "salt", user.Salt)
}

func TestSeedAll_RuleStagesOrderedByPosition(t *testing.T) {
	db := setupSeedTestDB(t)

	assert.NoError(t, SeedAll(db, fakeHash))

	rule, found, err := LookupAssignedRule(db, "R001")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, rule.Stages, 4)
	for i := 1; i < len(rule.Stages); i++ {
		assert.LessOrEqual(t, rule.Stages[i-1].OffsetDays, rule.Stages[i].OffsetDays)
	}
}

func TestLookupAssignedRule_Dangling(t *testing.T) {
	db := setupSeedTestDB(t)

	assert.NoError(t, SeedAll(db, fakeHash))

	_, found, err := LookupAssignedRule(db, "R999")
	assert.NoError(t, err)
	assert.False(t, found)

	_, found, err = LookupAssignedRule(db, "")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestLookupRole(t *testing.T) {
	db := setupSeedTestDB(t)

	assert.NoError(t, SeedAll(db, fakeHash))

	role, found, err := LookupRole(db, "超级管理员")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "R1", role.Code)

	_, found, err = LookupRole(db, "不存在的角色")
	assert.NoError(t, err)
	assert.False(t, found)
}
