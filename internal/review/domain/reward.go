package domain

import "strings"

const (
	// ImportantTaskReward is awarded for completing an important task.
	ImportantTaskReward = 10
	// RegularTaskReward is awarded for completing any other task.
	RegularTaskReward = 5
)

// RewardExtractor is one named strategy for reading a reward from a record.
// Extract reports false when the strategy does not apply to the record.
type RewardExtractor struct {
	Name    string
	Extract func(RawRecord) (float64, bool)
}

// PrecomputedReward reads a reward stored directly on the record.
func PrecomputedReward(property string) RewardExtractor {
	return RewardExtractor{
		Name: "precomputed:" + property,
		Extract: func(r RawRecord) (float64, bool) {
			return r.Number(property)
		},
	}
}

// PriorityReward derives a fixed reward from the priority label: important
// for the sentinel label, regular for any other readable label.
func PriorityReward(property, sentinel string, important, regular float64) RewardExtractor {
	return RewardExtractor{
		Name: "priority:" + property,
		Extract: func(r RawRecord) (float64, bool) {
			label, ok := r.Label(property)
			if !ok {
				return 0, false
			}
			if strings.EqualFold(label, sentinel) {
				return important, true
			}
			return regular, true
		},
	}
}

// DefaultRewardExtractors returns the reward strategies in the order they
// are tried: a precomputed reward first, then the priority-derived award.
func DefaultRewardExtractors(schema RecordSchema) []RewardExtractor {
	return []RewardExtractor{
		PrecomputedReward(schema.RewardProperty),
		PriorityReward(schema.PriorityProperty, schema.ImportantLabel, ImportantTaskReward, RegularTaskReward),
	}
}

// extractReward runs the strategies in order and stops at the first value.
func extractReward(r RawRecord, extractors []RewardExtractor) (float64, string, bool) {
	for _, e := range extractors {
		if e.Extract == nil {
			continue
		}
		if v, ok := e.Extract(r); ok {
			return v, e.Name, true
		}
	}
	return 0, "", false
}
