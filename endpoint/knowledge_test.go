package endpoint_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/qiuyue/followup-center/model"
	"github.com/stretchr/testify/assert"
)

func TestListKnowledge_NewestFirst(t *testing.T) {
	r, _ := setupTestServer(t)

	data := getData(t, r, "/knowledge")
	assertTotal(t, data, 3)

	var items []model.KnowledgeItem
	b, _ := json.Marshal(data["items"])
	assert.NoError(t, json.Unmarshal(b, &items))
	assert.Equal(t, "K001", items[0].Code)
	assert.Equal(t, "K003", items[2].Code)
}

func TestListKnowledge_FilterByType(t *testing.T) {
	r, _ := setupTestServer(t)

	data := getData(t, r, "/knowledge?type=speech")
	assertTotal(t, data, 1)

	var items []model.KnowledgeItem
	b, _ := json.Marshal(data["items"])
	assert.NoError(t, json.Unmarshal(b, &items))
	assert.Equal(t, "K003", items[0].Code)
	assert.Equal(t, "女声-亲和型", items[0].VoiceType)
}

func TestListKnowledge_UnknownType(t *testing.T) {
	r, _ := setupTestServer(t)

	rr := doRequest(r, "GET", "/knowledge?type=video", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSaveKnowledge_Create(t *testing.T) {
	r, db := setupTestServer(t)

	body := map[string]interface{}{
		"title":  "肠镜检查前准备宣教",
		"author": "内镜中心",
		"type":   "article",
	}
	rr := doRequest(r, "POST", "/knowledge", body)
	assert.Equal(t, http.StatusOK, rr.Code)

	var saved model.KnowledgeItem
	resp := parseAPIResp(t, rr)
	assert.NoError(t, json.Unmarshal(resp.Data, &saved))
	assert.NotEmpty(t, saved.Code)
	assert.NotEmpty(t, saved.Date) // defaults to today

	var count int64
	db.Model(&model.KnowledgeItem{}).Count(&count)
	assert.EqualValues(t, 4, count)
}

func TestSaveKnowledge_ReplaceInPlace(t *testing.T) {
	r, db := setupTestServer(t)

	body := map[string]interface{}{
		"code":   "K002",
		"title":  "胃息肉切除术后宣教内容（修订）",
		"author": "内镜中心",
		"type":   "article",
	}
	rr := doRequest(r, "POST", "/knowledge", body)
	assert.Equal(t, http.StatusOK, rr.Code)

	var item model.KnowledgeItem
	assert.NoError(t, db.Where("code = ?", "K002").First(&item).Error)
	assert.Equal(t, "胃息肉切除术后宣教内容（修订）", item.Title)

	var count int64
	db.Model(&model.KnowledgeItem{}).Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestSaveKnowledge_MissingTitle(t *testing.T) {
	r, _ := setupTestServer(t)

	rr := doRequest(r, "POST", "/knowledge", map[string]interface{}{"type": "article"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSaveKnowledge_UnknownType(t *testing.T) {
	r, _ := setupTestServer(t)

	rr := doRequest(r, "POST", "/knowledge", map[string]interface{}{"title": "测试", "type": "video"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteKnowledge(t *testing.T) {
	r, db := setupTestServer(t)

	rr := doRequest(r, "DELETE", "/knowledge/K001", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var count int64
	db.Model(&model.KnowledgeItem{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestDeleteKnowledge_UnknownCodeIsNoop(t *testing.T) {
	r, db := setupTestServer(t)

	rr := doRequest(r, "DELETE", "/knowledge/K999", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var count int64
	db.Model(&model.KnowledgeItem{}).Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestImportKnowledge_AsyncCreation(t *testing.T) {
	r, db := setupTestServer(t)

	rr := doRequest(r, "POST", "/knowledge/import", map[string]interface{}{"type": "article"})
	assert.Equal(t, http.StatusOK, rr.Code)

	// The import is acknowledged immediately and lands later
	var immediate int64
	db.Model(&model.KnowledgeItem{}).Count(&immediate)
	assert.EqualValues(t, 3, immediate)

	assert.Eventually(t, func() bool {
		var item model.KnowledgeItem
		err := db.Where("title = ?", "新导入外部结构化资产").First(&item).Error
		return err == nil && item.Author == "系统同步" && item.Type == model.KnowledgeArticle
	}, 3*time.Second, 100*time.Millisecond)
}

func TestImportKnowledge_UnknownType(t *testing.T) {
	r, _ := setupTestServer(t)

	rr := doRequest(r, "POST", "/knowledge/import", map[string]interface{}{"type": "video"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
