// Package motivation picks the message shown after progress is logged.
package motivation

import (
	"encoding/binary"
	"hash/fnv"
	"time"
)

var messages = []string{
	"Progress logged. Nice work!",
	"One more step forward.",
	"Small steps add up.",
	"You showed up today.",
	"Streak extended.",
	"That counts. Keep going.",
	"Steady beats fast.",
	"Future you says thanks.",
	"Another day on the board.",
	"Habits are built like this.",
	"The gap just got smaller.",
	"Done is better than perfect.",
	"Logged. On to the next one.",
	"You kept your word to yourself.",
	"Every entry moves the line.",
	"Consistency wins.",
	"That is what progress looks like.",
	"Quietly getting it done.",
	"Good rep. Same time tomorrow?",
	"Slow and steady, still ahead.",
	"The plan is working.",
	"You are closing in.",
	"Effort recorded.",
	"Routine is your edge.",
}

// Messages returns a copy of every message.
func Messages() []string {
	return append([]string(nil), messages...)
}

// At returns the message selected for the Unix second of t.
func At(t time.Time) string {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(t.Unix()))

	h := fnv.New64a()
	h.Write(buf[:])
	return messages[h.Sum64()%uint64(len(messages))]
}
