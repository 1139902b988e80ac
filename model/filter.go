package model

import "strings"

// PatientFilter collects the patient-list search criteria. The zero value
// matches every patient. Keyword is a case-sensitive substring match over
// name or code; the date bounds are ISO strings compared lexicographically.
type PatientFilter struct {
	Keyword       string
	Status        FollowUpStatus
	HasStatus     bool
	Gender        string
	AgeMin        int
	HasAgeMin     bool
	AgeMax        int
	HasAgeMax     bool
	Diagnosis     string
	EnrollStart   string
	EnrollEnd     string
	FollowUpStart string
	FollowUpEnd   string
}

func (f PatientFilter) matches(p Patient) bool {
	if f.Keyword != "" && !strings.Contains(p.Name, f.Keyword) && !strings.Contains(p.Code, f.Keyword) {
		return false
	}
	if f.HasStatus && p.Status != f.Status {
		return false
	}
	if f.Gender != "" && p.Gender != f.Gender {
		return false
	}
	if f.HasAgeMin && p.Age < f.AgeMin {
		return false
	}
	if f.HasAgeMax && p.Age > f.AgeMax {
		return false
	}
	if f.Diagnosis != "" && !strings.Contains(p.Diagnosis, f.Diagnosis) {
		return false
	}
	if f.EnrollStart != "" && p.EnrollDate < f.EnrollStart {
		return false
	}
	if f.EnrollEnd != "" && p.EnrollDate > f.EnrollEnd {
		return false
	}
	if f.FollowUpStart != "" && p.NextFollowUp < f.FollowUpStart {
		return false
	}
	if f.FollowUpEnd != "" && p.NextFollowUp > f.FollowUpEnd {
		return false
	}
	return true
}

// FilterPatients applies every active criterion, AND-combined, preserving
// the order of the input. An empty filter returns the input unchanged.
func FilterPatients(patients []Patient, f PatientFilter) []Patient {
	out := make([]Patient, 0, len(patients))
	for _, p := range patients {
		if f.matches(p) {
			out = append(out, p)
		}
	}
	return out
}
