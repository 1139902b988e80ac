package util

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qiuyue/followup-center/config"
	"github.com/qiuyue/followup-center/model"
	"github.com/redis/go-redis/v9"
)

// RuleDraft is a working copy of a follow-up rule being edited. It lives in
// Redis (or the in-memory fallback) until committed or expired; the
// persisted rule is untouched until an explicit commit.
type RuleDraft struct {
	ID              string                `json:"id"`
	RuleCode        string                `json:"rule_code"`
	Name            string                `json:"name"`
	DiseaseType     string                `json:"disease_type"`
	IsAutoExecution bool                  `json:"is_auto_execution"`
	Stages          []model.FollowUpStage `json:"stages"`
}

const (
	draftKeyPrefix = "ruledraft:"
	draftTTL       = 2 * time.Hour
)

// ErrDraftNotFound is returned when a draft handle is unknown or expired.
var ErrDraftNotFound = fmt.Errorf("rule draft not found")

// In-memory fallback used when Redis is unavailable. Entries do not expire;
// drafts are deleted on commit and the map is bounded by editor usage.
var (
	draftMu  sync.RWMutex
	draftMem = map[string]RuleDraft{}
)

// NewDraftID generates a handle for a fresh working copy.
func NewDraftID() string {
	return uuid.NewString()
}

func draftKey(id string) string {
	return draftKeyPrefix + id
}

// SaveRuleDraft stores or replaces a working copy.
func SaveRuleDraft(ctx context.Context, draft RuleDraft) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		draftMu.Lock()
		draftMem[draft.ID] = draft
		draftMu.Unlock()
		return nil
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode rule draft: %w", err)
	}
	if err := rdb.Set(ctx, draftKey(draft.ID), payload, draftTTL).Err(); err != nil {
		return fmt.Errorf("failed to store rule draft: %w", err)
	}
	return nil
}

// GetRuleDraft fetches a working copy by handle.
func GetRuleDraft(ctx context.Context, id string) (RuleDraft, error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		draftMu.RLock()
		draft, ok := draftMem[id]
		draftMu.RUnlock()
		if !ok {
			return RuleDraft{}, ErrDraftNotFound
		}
		return draft, nil
	}

	payload, err := rdb.Get(ctx, draftKey(id)).Bytes()
	if err == redis.Nil {
		return RuleDraft{}, ErrDraftNotFound
	}
	if err != nil {
		return RuleDraft{}, fmt.Errorf("failed to fetch rule draft: %w", err)
	}
	var draft RuleDraft
	if err := json.Unmarshal(payload, &draft); err != nil {
		return RuleDraft{}, fmt.Errorf("failed to decode rule draft: %w", err)
	}
	return draft, nil
}

// DeleteRuleDraft discards a working copy. Unknown handles are a no-op.
func DeleteRuleDraft(ctx context.Context, id string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		draftMu.Lock()
		delete(draftMem, id)
		draftMu.Unlock()
		return nil
	}
	if err := rdb.Del(ctx, draftKey(id)).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to delete rule draft: %w", err)
	}
	return nil
}

// ResetDraftStoreForTesting clears the in-memory fallback between tests.
func ResetDraftStoreForTesting() {
	draftMu.Lock()
	draftMem = map[string]RuleDraft{}
	draftMu.Unlock()
}
