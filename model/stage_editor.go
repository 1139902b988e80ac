package model

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// FormUnassignedName is the placeholder shown for a stage that has no
// questionnaire attached yet (FormCode == "").
const FormUnassignedName = "尚未关联问卷表单"

// ErrStageIndexOutOfRange is returned by AssignForm when the stage index
// does not address an existing stage.
var ErrStageIndexOutOfRange = fmt.Errorf("stage index out of range")

// NewStageCode generates an identifier for a stage created in the editor.
func NewStageCode() string {
	return uuid.NewString()
}

// AppendStage returns stages with a fresh trailing stage. The new stage
// defaults to 90 days after the current last stage (90 when the list is
// empty), a 7-day reminder lead, a positional period name and no attached
// form. The input slice is not modified.
func AppendStage(stages []FollowUpStage) []FollowUpStage {
	lastOffset := 0
	if len(stages) > 0 {
		lastOffset = stages[len(stages)-1].OffsetDays
	}
	next := FollowUpStage{
		Code:            NewStageCode(),
		PeriodName:      fmt.Sprintf("后续节点 %d", len(stages)+1),
		OffsetDays:      lastOffset + 90,
		TriggerLeadDays: 7,
		FormCode:        "",
		FormName:        FormUnassignedName,
	}
	out := make([]FollowUpStage, 0, len(stages)+1)
	out = append(out, stages...)
	return append(out, next)
}

// RemoveStage returns stages without the stage carrying the given code.
// An unknown code leaves the list unchanged.
func RemoveStage(stages []FollowUpStage, code string) []FollowUpStage {
	out := make([]FollowUpStage, 0, len(stages))
	for _, s := range stages {
		if s.Code == code {
			continue
		}
		out = append(out, s)
	}
	return out
}

// AssignForm attaches a form template to the stage at idx.
func AssignForm(stages []FollowUpStage, idx int, form FormTemplate) ([]FollowUpStage, error) {
	if idx < 0 || idx >= len(stages) {
		return nil, fmt.Errorf("%w: %d of %d", ErrStageIndexOutOfRange, idx, len(stages))
	}
	out := make([]FollowUpStage, len(stages))
	copy(out, stages)
	out[idx].FormCode = form.Code
	out[idx].FormName = form.Name
	return out, nil
}

// CommitStages orders stages ascending by offset for publication. The sort
// is stable, so stages sharing an offset keep their editing order. Positions
// are renumbered to persist the committed order.
func CommitStages(stages []FollowUpStage) []FollowUpStage {
	out := make([]FollowUpStage, len(stages))
	copy(out, stages)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OffsetDays < out[j].OffsetDays
	})
	for i := range out {
		out[i].Position = i
	}
	return out
}
