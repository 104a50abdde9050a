package analytics

import (
	"math"
	"time"
)

type Sex string

const (
	Male   Sex = "Male"
	Female Sex = "Female"
)

type Profile struct {
	HeightCm      float64
	DateOfBirth   time.Time
	Sex           Sex
	ActivityLevel int
}

type Entry struct {
	At         time.Time
	WeightKg   float64
	BodyFatPct *float64
}

// Metrics holds the derived numbers for one week. A nil field means the value
// could not be resolved from the available inputs.
type Metrics struct {
	AvgWeight  *float64 `json:"avg_weight"`
	AvgBodyFat *float64 `json:"avg_body_fat"`
	FatMass    *float64 `json:"fat_mass"`
	LeanMass   *float64 `json:"lean_mass"`
	Ffmi       *float64 `json:"ffmi"`
	BmrRest    *float64 `json:"bmr_rest"`
	BmrMotion  *float64 `json:"bmr_motion"`
	Offset     *float64 `json:"offset"`
	TargetKcal *float64 `json:"target_kcal"`
	ProtG      *float64 `json:"prot_g"`
	CarbsG     *float64 `json:"carbs_g"`
	FatG       *float64 `json:"fat_g"`
	CalProt    *float64 `json:"cal_prot"`
	CalCarbs   *float64 `json:"cal_carbs"`
	CalFat     *float64 `json:"cal_fat"`
	PercProt   *float64 `json:"perc_prot"`
	PercCarbs  *float64 `json:"perc_carbs"`
	PercFat    *float64 `json:"perc_fat"`
}

var activityFactors = map[int]float64{
	0: 1.2,
	1: 1.375,
	2: 1.55,
	3: 1.725,
	4: 1.9,
}

func ActivityFactor(level int) float64 {
	if f, ok := activityFactors[level]; ok {
		return f
	}
	return activityFactors[0]
}

// bmrSexConstant is the Mifflin-St Jeor sex term. An unknown sex leaves the
// BMR unresolved.
func bmrSexConstant(s Sex) (float64, bool) {
	switch s {
	case Male:
		return 5, true
	case Female:
		return -161, true
	default:
		return 0, false
	}
}

func AgeYears(dob, asOf time.Time) *float64 {
	if dob.IsZero() {
		return nil
	}
	age := asOf.Sub(dob).Hours() / 24 / 365.25
	return &age
}

// ComputeWeekMetrics derives body composition, energy expenditure and macro
// targets for the entries of one week under the given phase. asOf is the
// reference instant used for the profile's age.
func ComputeWeekMetrics(p Profile, entries []Entry, phase *Phase, asOf time.Time) Metrics {
	var m Metrics
	if len(entries) == 0 || phase == nil {
		return m
	}

	var weightSum float64
	var fatSum float64
	fatCount := 0
	for _, e := range entries {
		weightSum += e.WeightKg
		if e.BodyFatPct != nil {
			fatSum += *e.BodyFatPct
			fatCount++
		}
	}
	m.AvgWeight = ptr(weightSum / float64(len(entries)))
	if fatCount > 0 {
		m.AvgBodyFat = ptr(fatSum / float64(fatCount))
	}

	if m.AvgBodyFat != nil {
		fatMass := *m.AvgWeight * *m.AvgBodyFat / 100
		m.FatMass = ptr(fatMass)
		m.LeanMass = ptr(*m.AvgWeight - fatMass)
	}

	age := AgeYears(p.DateOfBirth, asOf)
	if p.HeightCm > 0 {
		heightM := p.HeightCm / 100
		if m.LeanMass != nil {
			m.Ffmi = ptr(*m.LeanMass / (heightM * heightM))
		}
		if sexConstant, ok := bmrSexConstant(p.Sex); ok && age != nil {
			base := 10**m.AvgWeight + 6.25*p.HeightCm - 5**age + sexConstant
			m.BmrRest = ptr(base)
			m.BmrMotion = ptr(base * ActivityFactor(p.ActivityLevel))
		}
	}

	m.Offset = ptr(float64(phase.CalorieOffset))
	if m.BmrMotion == nil || m.LeanMass == nil {
		return m
	}

	target := *m.BmrMotion + float64(phase.CalorieOffset)
	m.TargetKcal = ptr(target)
	if target <= 0 {
		return m
	}

	protG := phase.ProteinPerKgLean * *m.LeanMass
	fatG := phase.FatPerKgBody * *m.AvgWeight
	calProt := protG * 4
	calFat := fatG * 9
	calCarbs := math.Max(target-(calProt+calFat), 0)

	m.ProtG = ptr(protG)
	m.FatG = ptr(fatG)
	m.CarbsG = ptr(calCarbs / 4)
	m.CalProt = ptr(calProt)
	m.CalFat = ptr(calFat)
	m.CalCarbs = ptr(calCarbs)
	m.PercProt = ptr(calProt / target * 100)
	m.PercCarbs = ptr(calCarbs / target * 100)
	m.PercFat = ptr(calFat / target * 100)
	return m
}

func ptr(v float64) *float64 {
	return &v
}
