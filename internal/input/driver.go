package input

// Driver abstracts the OS input-injection layer so the dispatcher can be
// tested without synthesizing real events.
type Driver interface {
	Move(x, y int)
	Click(x, y int)
	DoubleClick(x, y int)
	RightClick(x, y int)
	Drag(fromX, fromY, toX, toY int)
	TypeText(text string)
	Hotkey(keys []string) error
	// Scroll acts at the current pointer position; callers Move first when
	// the scroll has an explicit target.
	Scroll(direction string, amount int)
}
