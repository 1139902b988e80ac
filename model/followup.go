package model

import "fmt"

// FollowUpStatus is the lifecycle state of a patient inside the follow-up
// workflow. The variant set is closed: badge and tab lookups switch
// exhaustively over it, so an unknown value is an error, never a default.
type FollowUpStatus string

const (
	StatusUnenrolled FollowUpStatus = "待入组"
	StatusCompleted  FollowUpStatus = "已完成"
	StatusPending    FollowUpStatus = "待随访"
	StatusInProgress FollowUpStatus = "随访中"
	StatusLost       FollowUpStatus = "失访"
	StatusOverdue    FollowUpStatus = "逾期未访"
)

// FollowUpMode selects how a follow-up task is executed.
type FollowUpMode string

const (
	ModeManual FollowUpMode = "人工随访"
	ModeAuto   FollowUpMode = "自动随访"
)

// StatusBadge describes how a status is presented (tone drives badge color).
type StatusBadge struct {
	Status FollowUpStatus `json:"status"`
	Tone   string         `json:"tone"`
}

// ModeBadge describes how an execution mode is presented.
type ModeBadge struct {
	Mode FollowUpMode `json:"mode"`
	Tone string       `json:"tone"`
	Icon string       `json:"icon"`
}

var statusBadges = map[FollowUpStatus]StatusBadge{
	StatusUnenrolled: {Status: StatusUnenrolled, Tone: "slate"},
	StatusCompleted:  {Status: StatusCompleted, Tone: "emerald"},
	StatusPending:    {Status: StatusPending, Tone: "blue"},
	StatusInProgress: {Status: StatusInProgress, Tone: "indigo"},
	StatusLost:       {Status: StatusLost, Tone: "slate"},
	StatusOverdue:    {Status: StatusOverdue, Tone: "rose"},
}

var modeBadges = map[FollowUpMode]ModeBadge{
	ModeAuto:   {Mode: ModeAuto, Tone: "indigo", Icon: "cpu"},
	ModeManual: {Mode: ModeManual, Tone: "amber", Icon: "user-cog"},
}

// StatusDescriptor resolves the badge descriptor for a status.
// Unknown variants are rejected so that a new status forces this map to be
// extended instead of rendering silently wrong.
func StatusDescriptor(s FollowUpStatus) (StatusBadge, error) {
	badge, ok := statusBadges[s]
	if !ok {
		return StatusBadge{}, fmt.Errorf("unknown follow-up status: %q", s)
	}
	return badge, nil
}

// ModeDescriptor resolves the badge descriptor for an execution mode.
func ModeDescriptor(m FollowUpMode) (ModeBadge, error) {
	badge, ok := modeBadges[m]
	if !ok {
		return ModeBadge{}, fmt.Errorf("unknown follow-up mode: %q", m)
	}
	return badge, nil
}

// ValidStatus reports whether s is one of the six known variants.
func ValidStatus(s FollowUpStatus) bool {
	_, ok := statusBadges[s]
	return ok
}

// ValidMode reports whether m is one of the two known variants.
func ValidMode(m FollowUpMode) bool {
	_, ok := modeBadges[m]
	return ok
}

// TabAll is the wildcard patient-list tab carrying no status filter.
const TabAll = "全部"

var tabStatus = map[string]FollowUpStatus{
	"待随访": StatusPending,
	"随访中": StatusInProgress,
	"已完成": StatusCompleted,
	"待入组": StatusUnenrolled,
}

// ResolveTab maps a patient-list tab label to its status filter.
// The wildcard tab (or an empty label) returns ok=false with no error;
// an unrecognized label is an error.
func ResolveTab(tab string) (FollowUpStatus, bool, error) {
	if tab == "" || tab == TabAll {
		return "", false, nil
	}
	status, ok := tabStatus[tab]
	if !ok {
		return "", false, fmt.Errorf("unknown patient tab: %q", tab)
	}
	return status, true, nil
}
