package availability

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var (
	ErrInvertedRange = errors.New("check out date can't be before check in date")
	ErrDateConflict  = errors.New("selected dates overlap an existing booking")
)

// ConflictError reports the first already-booked day met while extending an index.
type ConflictError struct {
	Day Date
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrDateConflict.Error(), e.Day)
}

func (e *ConflictError) Unwrap() error {
	return ErrDateConflict
}

// Calendar is the read/extend view of a listing's booked days.
type Calendar interface {
	Contains(day Date) bool
	Extend(checkIn, checkOut Date) (Index, error)
	Days() []Date
}

var _ Calendar = Index{}

// Index is the set of booked days of a listing, kept sorted and unique.
// Extend never mutates the receiver, so an Index may be shared freely.
type Index struct {
	days []Date
}

func NewIndex(days ...Date) Index {
	if len(days) == 0 {
		return Index{}
	}
	sorted := make([]Date, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	unique := sorted[:1]
	for _, d := range sorted[1:] {
		if d != unique[len(unique)-1] {
			unique = append(unique, d)
		}
	}
	return Index{days: unique}
}

func (ix Index) Len() int {
	return len(ix.days)
}

func (ix Index) Contains(day Date) bool {
	i := ix.search(day)
	return i < len(ix.days) && ix.days[i] == day
}

// Days returns the booked days in ascending order.
func (ix Index) Days() []Date {
	out := make([]Date, len(ix.days))
	copy(out, ix.days)
	return out
}

// Extend returns a new index holding every day of ix plus every day of
// [checkIn, checkOut]. If any of those days is already booked it returns ix
// unchanged together with a *ConflictError naming the first such day.
func (ix Index) Extend(checkIn, checkOut Date) (Index, error) {
	if checkOut.Before(checkIn) {
		return ix, ErrInvertedRange
	}

	run := make([]Date, 0, InclusiveDays(checkIn, checkOut))
	for d := checkIn; !d.After(checkOut); d = d.AddDays(1) {
		if ix.Contains(d) {
			return ix, &ConflictError{Day: d}
		}
		run = append(run, d)
	}

	// run is ascending and disjoint from ix, so it can be spliced in at one point.
	at := ix.search(checkIn)
	merged := make([]Date, 0, len(ix.days)+len(run))
	merged = append(merged, ix.days[:at]...)
	merged = append(merged, run...)
	merged = append(merged, ix.days[at:]...)
	return Index{days: merged}, nil
}

// Keys returns the days as YYYY-MM-DD strings, the persisted representation.
func (ix Index) Keys() []string {
	keys := make([]string, 0, len(ix.days))
	for _, d := range ix.days {
		keys = append(keys, d.String())
	}
	return keys
}

func (ix Index) search(day Date) int {
	return sort.Search(len(ix.days), func(i int) bool { return !ix.days[i].Before(day) })
}

func fromKeys(keys []string) (Index, error) {
	days := make([]Date, 0, len(keys))
	for _, k := range keys {
		d, err := ParseDate(k)
		if err != nil {
			return Index{}, err
		}
		days = append(days, d)
	}
	return NewIndex(days...), nil
}

// FromNested converts the legacy year -> zero-based month -> day layout
// (e.g. {"2024": {"0": {"10": true}}} for 2024-01-10) into an Index.
// Entries set to false are ignored.
func FromNested(nested map[string]map[string]map[string]bool) (Index, error) {
	var days []Date
	for y, months := range nested {
		year, err := strconv.Atoi(y)
		if err != nil {
			return Index{}, fmt.Errorf("invalid year key %q: %w", y, err)
		}
		for m, daysOfMonth := range months {
			month, err := strconv.Atoi(m)
			if err != nil || month < 0 || month > 11 {
				return Index{}, fmt.Errorf("invalid month key %q in year %d", m, year)
			}
			for dd, booked := range daysOfMonth {
				if !booked {
					continue
				}
				day, err := strconv.Atoi(dd)
				if err != nil {
					return Index{}, fmt.Errorf("invalid day key %q in %d-%02d", dd, year, month+1)
				}
				d := NewDate(year, time.Month(month+1), day)
				if d.Day != day {
					return Index{}, fmt.Errorf("day %d does not exist in %d-%02d", day, year, month+1)
				}
				days = append(days, d)
			}
		}
	}
	return NewIndex(days...), nil
}

func (ix Index) MarshalJSON() ([]byte, error) {
	return json.Marshal(ix.Keys())
}

func (ix *Index) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err == nil {
		parsed, err := fromKeys(keys)
		if err != nil {
			return err
		}
		*ix = parsed
		return nil
	}

	var nested map[string]map[string]map[string]bool
	if err := json.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("bookings index must be an array of dates or a year/month/day object: %w", err)
	}
	parsed, err := FromNested(nested)
	if err != nil {
		return err
	}
	*ix = parsed
	return nil
}

func (ix Index) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(ix.Keys())
}

func (ix *Index) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*ix = Index{}
		return nil
	case bsontype.Array:
		var keys []string
		if err := raw.Unmarshal(&keys); err != nil {
			return fmt.Errorf("decode bookings index: %w", err)
		}
		parsed, err := fromKeys(keys)
		if err != nil {
			return err
		}
		*ix = parsed
		return nil
	case bsontype.EmbeddedDocument:
		var nested map[string]map[string]map[string]bool
		if err := raw.Unmarshal(&nested); err != nil {
			return fmt.Errorf("decode legacy bookings index: %w", err)
		}
		parsed, err := FromNested(nested)
		if err != nil {
			return err
		}
		*ix = parsed
		return nil
	default:
		return fmt.Errorf("cannot decode BSON %s into a bookings index", t)
	}
}
