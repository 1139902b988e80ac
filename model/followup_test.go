package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusDescriptor_AllVariants(t *testing.T) {
	statuses := []FollowUpStatus{
		StatusUnenrolled, StatusCompleted, StatusPending,
		StatusInProgress, StatusLost, StatusOverdue,
	}
	for _, s := range statuses {
		badge, err := StatusDescriptor(s)
		assert.NoError(t, err)
		assert.Equal(t, s, badge.Status)
		assert.NotEmpty(t, badge.Tone)
	}
}

func TestStatusDescriptor_Tones(t *testing.T) {
	completed, err := StatusDescriptor(StatusCompleted)
	assert.NoError(t, err)
	assert.Equal(t, "emerald", completed.Tone)

	overdue, err := StatusDescriptor(StatusOverdue)
	assert.NoError(t, err)
	assert.Equal(t, "rose", overdue.Tone)

	// Lost and unenrolled share the neutral tone
	lost, _ := StatusDescriptor(StatusLost)
	unenrolled, _ := StatusDescriptor(StatusUnenrolled)
	assert.Equal(t, "slate", lost.Tone)
	assert.Equal(t, "slate", unenrolled.Tone)
}

func TestStatusDescriptor_Unknown(t *testing.T) {
	_, err := StatusDescriptor("已出院")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "已出院")
}

func TestModeDescriptor(t *testing.T) {
	auto, err := ModeDescriptor(ModeAuto)
	assert.NoError(t, err)
	assert.Equal(t, "indigo", auto.Tone)
	assert.Equal(t, "cpu", auto.Icon)

	manual, err := ModeDescriptor(ModeManual)
	assert.NoError(t, err)
	assert.Equal(t, "amber", manual.Tone)
	assert.Equal(t, "user-cog", manual.Icon)
}

func TestModeDescriptor_Unknown(t *testing.T) {
	_, err := ModeDescriptor("半自动")
	assert.Error(t, err)
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusOverdue))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("未知状态"))
}

func TestValidMode(t *testing.T) {
	assert.True(t, ValidMode(ModeAuto))
	assert.True(t, ValidMode(ModeManual))
	assert.False(t, ValidMode(""))
}

func TestResolveTab_Wildcard(t *testing.T) {
	for _, tab := range []string{"", TabAll} {
		status, filtered, err := ResolveTab(tab)
		assert.NoError(t, err)
		assert.False(t, filtered)
		assert.Empty(t, status)
	}
}

func TestResolveTab_StatusTabs(t *testing.T) {
	cases := map[string]FollowUpStatus{
		"待随访": StatusPending,
		"随访中": StatusInProgress,
		"已完成": StatusCompleted,
		"待入组": StatusUnenrolled,
	}
	for tab, want := range cases {
		status, filtered, err := ResolveTab(tab)
		assert.NoError(t, err)
		assert.True(t, filtered)
		assert.Equal(t, want, status)
	}
}

func TestResolveTab_Unknown(t *testing.T) {
	_, _, err := ResolveTab("逾期专区")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "逾期专区")
}
