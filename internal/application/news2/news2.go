// Package news2 computes the National Early Warning Score 2 (SpO2 scale 1)
// from the latest reading of each vital sign.
package news2

import (
	"fmt"
	"strings"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
)

// Assessment is the aggregate score and the parameters that contributed.
type Assessment struct {
	Score     int
	RedScore  bool
	Observed  int
	Triggers  []string
	RiskLevel string
}

// Summary renders the assessment for a prompt.
func (a Assessment) Summary() string {
	if a.Observed == 0 {
		return "NEWS2 not computable: no recent vital signs."
	}
	s := fmt.Sprintf("NEWS2 score %d from %d parameters (clinical risk %s)", a.Score, a.Observed, a.RiskLevel)
	if a.RedScore {
		s += ", single parameter scored 3"
	}
	if len(a.Triggers) > 0 {
		s += ". Contributors: " + strings.Join(a.Triggers, "; ")
	}
	return s
}

// Score assesses the newest reading of each parameter in vitals, which must
// be ordered newest first.
func Score(vitals []*entities.Vital) Assessment {
	latest := make(map[string]float64)
	for _, v := range vitals {
		if v == nil {
			continue
		}
		if _, seen := latest[v.Type]; !seen {
			latest[v.Type] = v.Value
		}
	}

	var a Assessment
	add := func(points int, label string) {
		a.Observed++
		if points == 0 {
			return
		}
		a.Score += points
		if points == 3 {
			a.RedScore = true
		}
		a.Triggers = append(a.Triggers, fmt.Sprintf("%s (+%d)", label, points))
	}

	if v, ok := latest[entities.VitalRespiratoryRate]; ok {
		add(respiratoryRate(v), fmt.Sprintf("respiratory rate %.0f/min", v))
	}
	if v, ok := latest[entities.VitalSpO2]; ok {
		add(spO2(v), fmt.Sprintf("SpO2 %.0f%%", v))
	}
	if v, ok := latest[entities.VitalSupplementalO2]; ok {
		points := 0
		if v > 0 {
			points = 2
		}
		add(points, "on supplemental oxygen")
	}
	if v, ok := latest[entities.VitalSystolicBP]; ok {
		add(systolic(v), fmt.Sprintf("systolic BP %.0f mmHg", v))
	}
	if v, ok := latest[entities.VitalHeartRate]; ok {
		add(pulse(v), fmt.Sprintf("pulse %.0f/min", v))
	}
	if v, ok := latest[entities.VitalConsciousness]; ok {
		points := 0
		if v > 0 {
			points = 3
		}
		add(points, "new confusion or reduced consciousness")
	}
	if v, ok := latest[entities.VitalTemperature]; ok {
		add(temperature(v), fmt.Sprintf("temperature %.1f C", v))
	}

	a.RiskLevel = riskLevel(a)
	return a
}

func riskLevel(a Assessment) string {
	switch {
	case a.Observed == 0:
		return entities.RiskLevelUnknown
	case a.Score >= 7:
		return entities.RiskLevelHigh
	case a.Score >= 5, a.RedScore:
		return entities.RiskLevelMedium
	default:
		return entities.RiskLevelLow
	}
}

func respiratoryRate(v float64) int {
	switch {
	case v <= 8:
		return 3
	case v <= 11:
		return 1
	case v <= 20:
		return 0
	case v <= 24:
		return 2
	default:
		return 3
	}
}

func spO2(v float64) int {
	switch {
	case v <= 91:
		return 3
	case v <= 93:
		return 2
	case v <= 95:
		return 1
	default:
		return 0
	}
}

func systolic(v float64) int {
	switch {
	case v <= 90:
		return 3
	case v <= 100:
		return 2
	case v <= 110:
		return 1
	case v <= 219:
		return 0
	default:
		return 3
	}
}

func pulse(v float64) int {
	switch {
	case v <= 40:
		return 3
	case v <= 50:
		return 1
	case v <= 90:
		return 0
	case v <= 110:
		return 1
	case v <= 130:
		return 2
	default:
		return 3
	}
}

func temperature(v float64) int {
	switch {
	case v <= 35.0:
		return 3
	case v <= 36.0:
		return 1
	case v <= 38.0:
		return 0
	case v <= 39.0:
		return 1
	default:
		return 2
	}
}
