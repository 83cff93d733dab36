package services

import (
	"encoding/json"

	"loyalty_engine/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	defaultVisitWindowDays = 15
	defaultStampTarget     = 10
)

// LadderRung maps a visit number to an earn percentage. Visits beyond the
// ladder use the last rung as the steady-state rate.
type LadderRung struct {
	Visit       int             `json:"visit"`
	EarnPercent decimal.Decimal `json:"earn_percent"`
}

type CashbackRule struct {
	VisitWindowDays int // 0 = earned cashback never expires
	Ladder          []LadderRung
}

type PointsRule struct {
	EarnPercent decimal.Decimal
}

type StampRule struct {
	TargetStamps int
	RewardCash   decimal.Decimal
}

// ResolvedProgram pairs a program row with its parsed rule. Exactly one of
// the rule fields is set, matching the program type.
type ResolvedProgram struct {
	Program  models.RewardProgram
	Cashback *CashbackRule
	Points   *PointsRule
	Stamp    *StampRule
}

// ProgramSet holds the first active program of each type. Multiple concurrent
// programs of the same type are not supported; later rows are ignored.
type ProgramSet struct {
	Cashback *ResolvedProgram
	Points   *ResolvedProgram
	Stamp    *ResolvedProgram
}

// ResolvePrograms interprets the freeform rule documents once per invocation.
// Malformed or missing fields are resolved by defaulting, never by erroring:
// program configuration problems must not block an order close.
func ResolvePrograms(programs []models.RewardProgram) *ProgramSet {
	set := &ProgramSet{}
	for i := range programs {
		program := programs[i]
		switch program.ProgramType {
		case models.ProgramCashback:
			if set.Cashback == nil {
				set.Cashback = &ResolvedProgram{Program: program, Cashback: parseCashbackRule(program.EarnRule)}
			}
		case models.ProgramPoints:
			if set.Points == nil {
				set.Points = &ResolvedProgram{Program: program, Points: parsePointsRule(program.EarnRule)}
			}
		case models.ProgramStamp:
			if set.Stamp == nil {
				set.Stamp = &ResolvedProgram{Program: program, Stamp: parseStampRule(program.EarnRule)}
			}
		}
	}
	return set
}

func parseCashbackRule(doc datatypes.JSON) *CashbackRule {
	var raw struct {
		VisitWindowDays *int         `json:"visit_window_days"`
		Ladder          []LadderRung `json:"ladder"`
	}
	if len(doc) > 0 {
		json.Unmarshal(doc, &raw)
	}

	rule := &CashbackRule{
		VisitWindowDays: defaultVisitWindowDays,
		Ladder:          raw.Ladder,
	}
	if raw.VisitWindowDays != nil {
		rule.VisitWindowDays = *raw.VisitWindowDays
	}
	return rule
}

func parsePointsRule(doc datatypes.JSON) *PointsRule {
	var raw struct {
		EarnPercent decimal.Decimal `json:"earn_percent"`
	}
	if len(doc) > 0 {
		json.Unmarshal(doc, &raw)
	}

	return &PointsRule{EarnPercent: raw.EarnPercent}
}

func parseStampRule(doc datatypes.JSON) *StampRule {
	var raw struct {
		TargetStamps *int            `json:"target_stamps"`
		RewardCash   decimal.Decimal `json:"reward_cash"`
	}
	if len(doc) > 0 {
		json.Unmarshal(doc, &raw)
	}

	rule := &StampRule{
		TargetStamps: defaultStampTarget,
		RewardCash:   raw.RewardCash,
	}
	if raw.TargetStamps != nil && *raw.TargetStamps > 0 {
		rule.TargetStamps = *raw.TargetStamps
	}
	return rule
}

// MatchRung finds the rung for the given visit, falling back to the last rung
// once the ladder is exhausted. Returns false only for an empty ladder.
func (r *CashbackRule) MatchRung(visit int) (LadderRung, bool) {
	for _, rung := range r.Ladder {
		if rung.Visit == visit {
			return rung, true
		}
	}
	if len(r.Ladder) > 0 {
		return r.Ladder[len(r.Ladder)-1], true
	}
	return LadderRung{}, false
}

func metaJSON(fields map[string]interface{}) datatypes.JSON {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
