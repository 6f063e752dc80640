package input

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// RobotgoDriver synthesizes real OS input events via robotgo.
type RobotgoDriver struct{}

// NewRobotgoDriver returns the production input driver.
func NewRobotgoDriver() *RobotgoDriver {
	return &RobotgoDriver{}
}

func (d *RobotgoDriver) Move(x, y int) {
	robotgo.MoveSmooth(x, y)
}

func (d *RobotgoDriver) Click(x, y int) {
	robotgo.MoveSmooth(x, y)
	robotgo.Click("left", false)
}

func (d *RobotgoDriver) DoubleClick(x, y int) {
	robotgo.MoveSmooth(x, y)
	robotgo.Click("left", true)
}

func (d *RobotgoDriver) RightClick(x, y int) {
	robotgo.MoveSmooth(x, y)
	robotgo.Click("right", false)
}

func (d *RobotgoDriver) Drag(fromX, fromY, toX, toY int) {
	robotgo.Move(fromX, fromY)
	robotgo.DragSmooth(toX, toY)
}

func (d *RobotgoDriver) TypeText(text string) {
	robotgo.TypeStr(text)
}

func (d *RobotgoDriver) Hotkey(keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("hotkey requires at least one key")
	}
	// robotgo takes the key first and modifiers as trailing args.
	key := keys[len(keys)-1]
	mods := make([]interface{}, 0, len(keys)-1)
	for _, m := range keys[:len(keys)-1] {
		mods = append(mods, m)
	}
	return robotgo.KeyTap(key, mods...)
}

func (d *RobotgoDriver) Scroll(direction string, amount int) {
	robotgo.ScrollDir(amount, direction)
}
