package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTask() Task {
	return Task{
		ID:           1704067200000,
		Action:       "read",
		CountPerDay:  10,
		Unit:         "minutes",
		CountAccum:   25.5,
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		EffectiveDow: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	}
}

func TestTaskRoundTrip(t *testing.T) {
	plain := sampleTask()

	named := sampleTask()
	named.Name = "Evening reading"
	named.Archive = true

	withDaily := sampleTask()
	withDaily.DailyTasks = []string{"chapter 1", "chapter 2"}

	emptyDaily := sampleTask()
	emptyDaily.DailyTasks = []string{}

	for _, task := range []Task{plain, named, withDaily, emptyDaily} {
		got, err := FromSerializable(ToSerializable(task))
		require.NoError(t, err)
		assert.Equal(t, task, got)
	}
}

func TestToSerializableFormats(t *testing.T) {
	record := ToSerializable(sampleTask())

	assert.Equal(t, "2024-01-01", record.Start)
	assert.Equal(t, "2024-01-31", record.End)
	assert.Equal(t, []string{"Mon", "Wed", "Fri"}, record.EffectiveDow)
	assert.Nil(t, record.Name)
	assert.Nil(t, record.DailyTasks)
}

func TestFromSerializableErrors(t *testing.T) {
	t.Run("bad start date", func(t *testing.T) {
		record := ToSerializable(sampleTask())
		record.Start = "2024/01/01"

		_, err := FromSerializable(record)
		require.Error(t, err)
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "start", perr.Field)
	})

	t.Run("bad weekday", func(t *testing.T) {
		record := ToSerializable(sampleTask())
		record.EffectiveDow = []string{"Mon", "Someday"}

		_, err := FromSerializable(record)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
	})
}

func TestDecodeStateDefaults(t *testing.T) {
	doc := `{
		"tasks": [
			{"id": 1, "action": "run", "countPerDay": 2, "unit": "km", "countAccum": 0,
			 "start": "2024-01-01", "end": "2024-01-07"}
		]
	}`

	state, err := DecodeState([]byte(doc))
	require.NoError(t, err)
	require.Len(t, state.Tasks, 1)

	record := state.Tasks[0]
	assert.Equal(t, DefaultEffectiveDow(), record.EffectiveDow)
	assert.Nil(t, record.DailyTasks)
	assert.Nil(t, record.Name)
	assert.False(t, record.Archive)
	assert.Nil(t, state.GithubPat)
	assert.Nil(t, state.GistID)

	task, err := FromSerializable(record)
	require.NoError(t, err)
	assert.Len(t, task.EffectiveDow, 7)
}

func TestDecodeStateMalformed(t *testing.T) {
	_, err := DecodeState([]byte(`{"tasks": [`))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestTokenObfuscation(t *testing.T) {
	token := "ghp_token"
	state := SerializableState{GithubPat: &token}

	hidden := state.WithObfuscatedToken()
	require.NotNil(t, hidden.GithubPat)
	assert.NotEqual(t, token, *hidden.GithubPat)
	assert.Equal(t, "ghp_token", token, "original must not be modified")

	revealed, err := hidden.WithRevealedToken()
	require.NoError(t, err)
	assert.Equal(t, token, *revealed.GithubPat)

	bad := "not-hex"
	_, err = SerializableState{GithubPat: &bad}.WithRevealedToken()
	assert.True(t, IsParseError(err))
}

func TestLabel(t *testing.T) {
	task := sampleTask()
	assert.Equal(t, "read 10 minutes", task.Label())

	task.CountPerDay = 2.5
	assert.Equal(t, "read 2.5 minutes", task.Label())

	task.Name = "Reading"
	assert.Equal(t, "Reading", task.Label())
}
