package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_Toggle(t *testing.T) {
	s := &State{}
	assert.False(t, s.Multiline())

	var msgs []string
	for range 4 {
		msgs = append(msgs, ToggleMessage(s.Toggle()))
	}

	assert.False(t, s.Multiline(), "an even number of toggles restores the state")
	assert.Equal(t, []string{
		"Set multiline ON",
		"Set multiline off",
		"Set multiline ON",
		"Set multiline off",
	}, msgs)
}

func TestHistory(t *testing.T) {
	h := &History{}
	h.Add("dir")
	h.Add("dir")
	h.Add("  ")
	h.Add("ipconfig /all")
	h.Add("dir")

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "ipconfig /all", h.At(1))
	assert.Equal(t, []string{"dir", "ipconfig /all"}, h.Newest())

	assert.Equal(t, "ipconfig /all", h.Suggest("ip"))
	assert.Equal(t, "", h.Suggest("IP"), "matching is case-sensitive")
	assert.Equal(t, "", h.Suggest("dir"), "an exact match is not a suggestion")
	assert.Equal(t, "", h.Suggest(""))
	assert.Equal(t, "", h.Suggest("net"))
}
