package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ExerciseSet is one set of an exercise line. Value holds reps or seconds
// depending on the owning line's mode. Weight is in kilograms and may be
// negative for assisted variants.
type ExerciseSet struct {
	Value  int     `json:"value"`
	Weight float64 `json:"weight"`
	Rest   *int    `json:"rest,omitempty"`
}

// RestSeconds returns the rest after this set, or 0 when unset.
func (s ExerciseSet) RestSeconds() int {
	if s.Rest == nil {
		return 0
	}
	return *s.Rest
}

// SetList is the ordered set list persisted as JSON text.
type SetList []ExerciseSet

// NormalizeRest treats a zero rest as unset.
func NormalizeRest(rest *int) *int {
	if rest == nil || *rest == 0 {
		return nil
	}
	v := *rest
	return &v
}

func (l SetList) normalized() SetList {
	out := make(SetList, len(l))
	for i, s := range l {
		out[i] = ExerciseSet{Value: s.Value, Weight: s.Weight, Rest: NormalizeRest(s.Rest)}
	}
	return out
}

// EncodeSets renders a set list in its stored form.
func EncodeSets(sets SetList) (string, error) {
	if sets == nil {
		sets = SetList{}
	}
	b, err := json.Marshal(sets.normalized())
	if err != nil {
		return "", fmt.Errorf("encode sets: %w", err)
	}
	return string(b), nil
}

// DecodeSets parses the stored form of a set list.
func DecodeSets(data string) (SetList, error) {
	if data == "" {
		return SetList{}, nil
	}
	var sets SetList
	if err := json.Unmarshal([]byte(data), &sets); err != nil {
		return nil, fmt.Errorf("decode sets: %w", err)
	}
	if sets == nil {
		return SetList{}, nil
	}
	return sets.normalized(), nil
}

func (l SetList) Value() (driver.Value, error) {
	return EncodeSets(l)
}

func (l *SetList) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*l = SetList{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan sets: unsupported type %T", value)
	}
	sets, err := DecodeSets(raw)
	if err != nil {
		return err
	}
	*l = sets
	return nil
}

func (SetList) GormDataType() string {
	return "text"
}

// UniformSets builds count sets of the same value, with rest between sets
// and none after the last one.
func UniformSets(count, value int, weight float64, rest int) SetList {
	sets := make(SetList, count)
	for i := range sets {
		sets[i] = ExerciseSet{Value: value, Weight: weight}
		if i < count-1 && rest > 0 {
			r := rest
			sets[i].Rest = &r
		}
	}
	return sets
}
