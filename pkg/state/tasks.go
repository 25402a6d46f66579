package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paleggworks/stayahead/pkg/dates"
	"github.com/paleggworks/stayahead/pkg/model"
	"github.com/paleggworks/stayahead/pkg/motivation"
	"github.com/paleggworks/stayahead/pkg/progress"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrNotArchived  = errors.New("only archived tasks can be deleted")
	ErrNotConfirmed = errors.New("deletion not confirmed")
	ErrArchived     = errors.New("task is archived")
	ErrInvalidTask  = errors.New("invalid task")
)

// NewTask is the input to CreateTask. When DailyTasks is non-nil the task
// is created in specific-activity mode and End is derived from it.
type NewTask struct {
	Action       string
	CountPerDay  float64
	Unit         string
	Start        time.Time
	End          time.Time
	EffectiveDow []time.Weekday
	DailyTasks   []string
	Name         string
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTask, fmt.Sprintf(format, args...))
}

func (n NewTask) build() (model.Task, error) {
	dow := dates.SortWeekdays(n.EffectiveDow)
	if len(dow) == 0 {
		return model.Task{}, invalid("at least one weekday is required")
	}

	task := model.Task{
		Action:       strings.TrimSpace(n.Action),
		CountPerDay:  n.CountPerDay,
		Unit:         strings.TrimSpace(n.Unit),
		Start:        dates.Day(n.Start),
		End:          dates.Day(n.End),
		EffectiveDow: dow,
		Name:         strings.TrimSpace(n.Name),
	}

	if n.DailyTasks != nil {
		daily := make([]string, 0, len(n.DailyTasks))
		for _, d := range n.DailyTasks {
			if d = strings.TrimSpace(d); d != "" {
				daily = append(daily, d)
			}
		}
		if len(daily) == 0 {
			return model.Task{}, invalid("daily task list is empty")
		}
		end, err := progress.ProjectCompletionDate(len(daily), task.Start, dow)
		if err != nil {
			return model.Task{}, invalid("%v", err)
		}
		task.DailyTasks = daily
		task.End = end
		task.CountPerDay = 1
		task.Unit = "task"
		return task, nil
	}

	switch {
	case task.Action == "":
		return model.Task{}, invalid("action is required")
	case task.Unit == "":
		return model.Task{}, invalid("unit is required")
	case !(task.CountPerDay > 0):
		return model.Task{}, invalid("count per day must be positive")
	case task.End.Before(task.Start):
		return model.Task{}, invalid("end %s is before start %s", dates.Format(task.End), dates.Format(task.Start))
	}
	return task, nil
}

// Tasks returns a copy of every task in creation order.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.tasks...)
}

// Filter returns the archived or the active tasks.
func (s *Store) Filter(archived bool) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Task
	for _, t := range s.tasks {
		if t.Archive == archived {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) Task(id int64) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return s.tasks[i], nil
}

func (s *Store) indexLocked(id int64) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// nextIDLocked uses the creation time in milliseconds, moved past any id
// already issued so rapid creations never collide.
func (s *Store) nextIDLocked() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// CreateTask validates n, appends the task and saves.
func (s *Store) CreateTask(ctx context.Context, n NewTask) (model.Task, error) {
	task, err := n.build()
	if err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	task.ID = s.nextIDLocked()
	if s.tasks == nil {
		s.tasks = []model.Task{}
	}
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()

	s.logger.Debug("task created", "task_id", task.ID, "label", task.Label())
	s.persist(ctx)
	s.notify(Event{Kind: TaskCreated, TaskID: task.ID})
	return task, nil
}

// LogProgress adds amount to the task's accumulated count and returns a
// motivational message.
func (s *Store) LogProgress(ctx context.Context, id int64, amount float64) (string, error) {
	if !(amount > 0) {
		return "", fmt.Errorf("%w: amount must be positive", ErrInvalidTask)
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	if s.tasks[i].Archive {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %d", ErrArchived, id)
	}
	s.tasks[i].CountAccum += amount
	accum := s.tasks[i].CountAccum
	s.mu.Unlock()

	s.logger.Debug("progress logged", "task_id", id, "amount", amount, "total", accum)
	s.persist(ctx)
	s.notify(Event{Kind: ProgressLogged, TaskID: id})
	return motivation.At(s.now()), nil
}

// ToggleArchive flips the archive flag and returns the new value.
func (s *Store) ToggleArchive(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	s.tasks[i].Archive = !s.tasks[i].Archive
	archived := s.tasks[i].Archive
	s.mu.Unlock()

	s.persist(ctx)
	s.notify(Event{Kind: ArchiveToggled, TaskID: id})
	return archived, nil
}

// Rename sets the display name. An empty name falls back to the label.
func (s *Store) Rename(ctx context.Context, id int64, name string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	s.tasks[i].Name = strings.TrimSpace(name)
	s.mu.Unlock()

	s.persist(ctx)
	s.notify(Event{Kind: TaskRenamed, TaskID: id})
	return nil
}

// Delete removes an archived task. confirm is the second step of the
// two-step confirmation and must be true.
func (s *Store) Delete(ctx context.Context, id int64, confirm bool) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	switch {
	case i < 0:
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	case !s.tasks[i].Archive:
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNotArchived, id)
	case !confirm:
		s.mu.Unlock()
		return ErrNotConfirmed
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.mu.Unlock()

	s.logger.Debug("task deleted", "task_id", id)
	s.persist(ctx)
	s.notify(Event{Kind: TaskDeleted, TaskID: id})
	return nil
}

// Report computes progress for one task as of now.
func (s *Store) Report(id int64) (progress.Report, error) {
	task, err := s.Task(id)
	if err != nil {
		return progress.Report{}, err
	}
	return progress.Compute(task, s.now()), nil
}

// Now is the store's clock.
func (s *Store) Now() time.Time {
	return s.now()
}
