package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/paleggworks/stayahead/pkg/dates"
	"github.com/paleggworks/stayahead/pkg/obfuscate"
)

// SerializableTask is the flat wire/disk form of a Task.
type SerializableTask struct {
	ID           int64    `json:"id"`
	Action       string   `json:"action"`
	CountPerDay  float64  `json:"countPerDay"`
	Unit         string   `json:"unit"`
	CountAccum   float64  `json:"countAccum"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	EffectiveDow []string `json:"effectiveDow"`
	DailyTasks   []string `json:"dailyTasks"`
	Name         *string  `json:"name"`
	Archive      bool     `json:"archive"`
}

// DefaultEffectiveDow is applied to records saved before weekdays existed.
func DefaultEffectiveDow() []string {
	return []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
}

// UnmarshalJSON fills EffectiveDow with every weekday when the field is missing or null.
func (t *SerializableTask) UnmarshalJSON(b []byte) error {
	type plain SerializableTask
	var decoded plain
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	if decoded.EffectiveDow == nil {
		decoded.EffectiveDow = DefaultEffectiveDow()
	}
	*t = SerializableTask(decoded)
	return nil
}

// SerializableState is the persisted and synced document.
type SerializableState struct {
	Tasks        []SerializableTask `json:"tasks"`
	GithubPat    *string            `json:"githubPat"`
	GistID       *string            `json:"gistId"`
	GistFileName *string            `json:"gistFileName"`
}

// ParseError reports a document or field that could not be decoded.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse state: %v", e.Err)
	}
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var perr *ParseError
	return errors.As(err, &perr)
}

// ToSerializable converts a Task to its flat form.
func ToSerializable(task Task) SerializableTask {
	dow := make([]string, 0, len(task.EffectiveDow))
	for _, d := range task.EffectiveDow {
		dow = append(dow, dates.WeekdayName(d))
	}

	var name *string
	if task.Name != "" {
		value := task.Name
		name = &value
	}

	var daily []string
	if task.DailyTasks != nil {
		daily = append([]string{}, task.DailyTasks...)
	}

	return SerializableTask{
		ID:           task.ID,
		Action:       task.Action,
		CountPerDay:  task.CountPerDay,
		Unit:         task.Unit,
		CountAccum:   task.CountAccum,
		Start:        dates.Format(task.Start),
		End:          dates.Format(task.End),
		EffectiveDow: dow,
		DailyTasks:   daily,
		Name:         name,
		Archive:      task.Archive,
	}
}

// FromSerializable converts a flat record back to a Task. Only date and
// weekday formats are checked here.
func FromSerializable(record SerializableTask) (Task, error) {
	start, err := dates.Parse(record.Start)
	if err != nil {
		return Task{}, &ParseError{Field: "start", Value: record.Start, Err: err}
	}
	end, err := dates.Parse(record.End)
	if err != nil {
		return Task{}, &ParseError{Field: "end", Value: record.End, Err: err}
	}

	dow := make([]time.Weekday, 0, len(record.EffectiveDow))
	for _, name := range record.EffectiveDow {
		d, err := dates.ParseWeekday(name)
		if err != nil {
			return Task{}, &ParseError{Field: "effectiveDow", Value: name, Err: err}
		}
		dow = append(dow, d)
	}

	var daily []string
	if record.DailyTasks != nil {
		daily = append([]string{}, record.DailyTasks...)
	}

	task := Task{
		ID:           record.ID,
		Action:       record.Action,
		CountPerDay:  record.CountPerDay,
		Unit:         record.Unit,
		CountAccum:   record.CountAccum,
		Start:        start,
		End:          end,
		EffectiveDow: dow,
		DailyTasks:   daily,
		Archive:      record.Archive,
	}
	if record.Name != nil {
		task.Name = *record.Name
	}
	return task, nil
}

// FromSerializableList converts every record, failing on the first bad one.
func FromSerializableList(records []SerializableTask) ([]Task, error) {
	tasks := make([]Task, 0, len(records))
	for _, record := range records {
		task, err := FromSerializable(record)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", record.ID, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// EncodeState renders the document as indented JSON.
func EncodeState(state SerializableState) ([]byte, error) {
	return json.MarshalIndent(state, "", "  ")
}

// DecodeState parses a document. Malformed JSON yields a *ParseError.
func DecodeState(data []byte) (SerializableState, error) {
	var state SerializableState
	if err := json.Unmarshal(data, &state); err != nil {
		return SerializableState{}, &ParseError{Err: err}
	}
	return state, nil
}

// WithObfuscatedToken returns a copy with the token encoded for storage.
func (s SerializableState) WithObfuscatedToken() SerializableState {
	if s.GithubPat != nil {
		encoded := obfuscate.Encode(*s.GithubPat)
		s.GithubPat = &encoded
	}
	return s
}

// WithRevealedToken returns a copy with the stored token decoded.
func (s SerializableState) WithRevealedToken() (SerializableState, error) {
	if s.GithubPat != nil {
		decoded, err := obfuscate.Decode(*s.GithubPat)
		if err != nil {
			return SerializableState{}, &ParseError{Field: "githubPat", Value: "<redacted>", Err: err}
		}
		s.GithubPat = &decoded
	}
	return s, nil
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, treating nil as empty.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
