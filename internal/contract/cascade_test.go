package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

func TestCascadeResult_SameMoves(t *testing.T) {
	base := CascadeResult{Updates: []ProposedUpdate{
		{TaskID: "a", NewStart: day(2), NewEnd: day(3), Reason: "FS on A"},
		{TaskID: "b", NewStart: day(4), NewEnd: day(4)},
	}}
	tests := []struct {
		name  string
		other CascadeResult
		want  bool
	}{
		{"ReorderedAndReworded", CascadeResult{Updates: []ProposedUpdate{
			{TaskID: "b", NewStart: day(4), NewEnd: day(4)},
			{TaskID: "a", NewStart: day(2), NewEnd: day(3), Reason: "other"},
		}}, true},
		{"DifferentEnd", CascadeResult{Updates: []ProposedUpdate{
			{TaskID: "a", NewStart: day(2), NewEnd: day(4)},
			{TaskID: "b", NewStart: day(4), NewEnd: day(4)},
		}}, false},
		{"MissingMove", CascadeResult{Updates: base.Updates[:1]}, false},
		{"OtherTask", CascadeResult{Updates: []ProposedUpdate{
			{TaskID: "a", NewStart: day(2), NewEnd: day(3)},
			{TaskID: "c", NewStart: day(4), NewEnd: day(4)},
		}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.SameMoves(tt.other))
			assert.Equal(t, tt.want, tt.other.SameMoves(base))
		})
	}
	assert.True(t, CascadeResult{}.SameMoves(CascadeResult{ChangedTaskID: "x"}))
}
