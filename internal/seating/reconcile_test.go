package seating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, ScorePositive, Classify(3))
	assert.Equal(t, ScoreNegative, Classify(-1))
	assert.Equal(t, ScoreNeutral, Classify(0))
}

func TestApplyScoreClassKeepsExactlyOne(t *testing.T) {
	classes := []string{"seat", "score-positive", "locked", "score-negative"}
	for _, total := range []int{-4, 0, 9, 9, -1} {
		classes = ApplyScoreClass(classes, total)
		n := 0
		for _, c := range classes {
			if isScoreClass(c) {
				n++
				assert.Equal(t, string(Classify(total)), c)
			}
		}
		assert.Equal(t, 1, n)
	}
	assert.Equal(t, []string{"seat", "locked", "score-negative"}, classes)
}

func TestApplyScoreClassIsIdempotent(t *testing.T) {
	once := ApplyScoreClass([]string{"seat"}, 2)
	assert.Equal(t, once, ApplyScoreClass(once, 2))
}

func TestProject(t *testing.T) {
	v := Project(Seat{UserID: 5, Name: "Eve", X: 1, Y: 2, Locked: true, Score: 0})
	assert.Equal(t, SeatView{
		UserID: 5, Name: "Eve", Left: 1, Top: 2,
		Locked: true, LockIcon: iconLocked, Score: 0, Class: ScoreNeutral,
	}, v)
}

func TestSeedScore(t *testing.T) {
	tests := []struct {
		name, attr, text string
		want             int
	}{
		{name: "attribute", attr: "4", text: "+9", want: 4},
		{name: "negative attribute", attr: " -2 ", want: -2},
		{name: "malformed attribute uses text", attr: "four", text: "+4", want: 4},
		{name: "missing attribute uses text", text: " -3 ", want: -3},
		{name: "nothing usable", attr: "x", text: "n/a", want: 0},
		{name: "empty", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeedScore(tt.attr, tt.text))
		})
	}
}
