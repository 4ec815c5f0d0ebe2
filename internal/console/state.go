package console

// State is the console's mutable process-lifetime state.
type State struct {
	multiline bool
}

// Multiline reports whether input is read as multi-line blocks.
func (s *State) Multiline() bool {
	return s.multiline
}

// Toggle flips multiline mode and returns the new value.
func (s *State) Toggle() bool {
	s.multiline = !s.multiline
	return s.multiline
}

// ToggleMessage is printed after each toggle.
func ToggleMessage(multiline bool) string {
	return "Set multiline " + onOff(multiline)
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "off"
}
