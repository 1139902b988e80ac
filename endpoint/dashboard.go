package endpoint

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiuyue/followup-center/model"
	"github.com/qiuyue/followup-center/util"
)

// weekdayLabels maps time.Weekday to the labels shown on the enrollment
// trend chart, Monday first.
var weekdayLabels = []string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

// resolveStatsWindow derives the [start, end] date strings for the stat
// cards. Explicit start/end win over the named range.
func resolveStatsWindow(rangeName, start, end string) (string, string, error) {
	today := time.Now()
	if start != "" || end != "" {
		if start == "" || end == "" {
			return "", "", fmt.Errorf("start and end must be provided together")
		}
		if _, err := time.Parse("2006-01-02", start); err != nil {
			return "", "", fmt.Errorf("invalid start date: %w", err)
		}
		if _, err := time.Parse("2006-01-02", end); err != nil {
			return "", "", fmt.Errorf("invalid end date: %w", err)
		}
		return start, end, nil
	}

	days := 30
	switch rangeName {
	case "", "30d":
	case "7d":
		days = 7
	case "90d":
		days = 90
	default:
		return "", "", fmt.Errorf("unknown range: %q", rangeName)
	}
	return today.AddDate(0, 0, -days).Format("2006-01-02"), today.Format("2006-01-02"), nil
}

// GetDashboardStats godoc
// @Summary      Aggregate dashboard statistics
// @Description  Stat cards, disease distribution, weekday enrollment trend and
// @Description  staff workload, aggregated from the live collections
// @Tags         Dashboard
// @Accept       json
// @Produce      json
// @Param        range query string false "Named window" Enums(7d, 30d, 90d)
// @Param        disease query string false "Restrict charts to one diagnosis"
// @Param        start query string false "Window start (YYYY-MM-DD, with end)"
// @Param        end query string false "Window end (YYYY-MM-DD, with start)"
// @Success      200 {object} util.APIResponse{data=object} "Statistics retrieved"
// @Failure      400 {object} util.APIResponse "Invalid window"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /dashboard/stats [get]
func GetDashboardStats(c *gin.Context) {
	start, end, err := resolveStatsWindow(c.Query("range"), c.Query("start"), c.Query("end"))
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid statistics window",
			Err: err,
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	var patients []model.Patient
	if err := db.Order("patients.id ASC").Find(&patients).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patients",
			Err: err,
		})
		return
	}

	disease := c.Query("disease")
	scoped := patients
	if disease != "" {
		scoped = make([]model.Patient, 0, len(patients))
		for _, p := range patients {
			if p.Diagnosis == disease {
				scoped = append(scoped, p)
			}
		}
	}

	newInRange := 0
	overdue := 0
	awaiting := 0
	distribution := map[string]int{}
	trend := make([]int, len(weekdayLabels))
	for _, p := range scoped {
		// ISO date strings order lexicographically.
		if p.EnrollDate >= start && p.EnrollDate <= end {
			newInRange++
			if d, err := time.Parse("2006-01-02", p.EnrollDate); err == nil {
				// time.Weekday starts on Sunday; the chart starts on Monday.
				trend[(int(d.Weekday())+6)%7]++
			}
		}
		switch p.Status {
		case model.StatusOverdue:
			overdue++
		case model.StatusPending, model.StatusInProgress:
			awaiting++
		}
		distribution[p.Diagnosis]++
	}

	var pendingCount int64
	if err := db.Model(&model.PendingPatient{}).Count(&pendingCount).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to count pending patients",
			Err: err,
		})
		return
	}

	var workloads []model.StaffWorkload
	if err := db.Order("staff_workloads.id ASC").Find(&workloads).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve staff workload",
			Err: err,
		})
		return
	}

	workloadRows := make([]map[string]interface{}, 0, len(workloads))
	for _, w := range workloads {
		workloadRows = append(workloadRows, map[string]interface{}{
			"name":            w.Name,
			"dept":            w.Dept,
			"total":           w.Total,
			"completed":       w.Completed,
			"overdue":         w.Overdue,
			"completion_rate": w.CompletionRate(),
		})
	}

	trendRows := make([]map[string]interface{}, 0, len(weekdayLabels))
	for i, label := range weekdayLabels {
		trendRows = append(trendRows, map[string]interface{}{
			"weekday": label,
			"count":   trend[i],
		})
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Statistics retrieved",
		Data: map[string]interface{}{
			"window": map[string]string{"start": start, "end": end},
			"cards": map[string]interface{}{
				"new_enrollments": newInRange,
				"cumulative":      len(scoped),
				"pending_tasks":   pendingCount + int64(awaiting),
				"overdue":         overdue,
			},
			"disease_distribution": distribution,
			"enrollment_trend":     trendRows,
			"staff_workload":       workloadRows,
		},
	})
}
