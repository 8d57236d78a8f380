package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLinkType(t *testing.T) {
	cases := map[string]LinkType{
		"":                LinkFinishToStart,
		"FS":              LinkFinishToStart,
		"finish-to-start": LinkFinishToStart,
		"Start_To_Start":  LinkStartToStart,
		"ff":              LinkFinishToFinish,
		"start to finish": LinkStartToFinish,
	}
	for in, want := range cases {
		got, ok := ParseLinkType(in)
		assert.True(t, ok, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, ok := ParseLinkType("finish-to-fish")
	assert.False(t, ok)
}

func TestLinkTypeLabel(t *testing.T) {
	assert.Equal(t, "start-to-finish", LinkStartToFinish.Label())
	assert.Equal(t, "XX", LinkType("XX").Label())
}

func TestPredecessorValidate(t *testing.T) {
	ok := Predecessor{TaskID: "b", PredecessorID: "a", Type: LinkFinishToStart}
	assert.NoError(t, ok.Validate())

	self := Predecessor{TaskID: "a", PredecessorID: "a", Type: LinkFinishToStart}
	assert.ErrorContains(t, self.Validate(), "itself")

	bad := Predecessor{TaskID: "b", PredecessorID: "a", Type: "XX"}
	assert.ErrorContains(t, bad.Validate(), "invalid link type")
}

func TestResourceValidate(t *testing.T) {
	r := Resource{Name: "Ana", Role: RoleLeader}
	assert.NoError(t, r.Validate())

	r.Role = "intern"
	assert.Error(t, r.Validate())
}
