package video

import (
	"github.com/go-gl/glfw/v3.2/glfw"

	"chip8vm/chip8"
)

// glfwKeyNames maps the physical keys the reference layout uses to the
// same key names chip8.ReferenceKeyMap indexes by.
//
//	Keypad    =>  Keyboard
//	|1|2|3|C|     |1|2|3|4|
//	|4|5|6|D|     |Q|W|E|R|
//	|7|8|9|E|     |A|S|D|F|
//	|A|0|B|F|     |Z|X|C|V|
var glfwKeyNames = map[glfw.Key]string{
	glfw.Key1: "1", glfw.Key2: "2", glfw.Key3: "3", glfw.Key4: "4",
	glfw.KeyQ: "Q", glfw.KeyW: "W", glfw.KeyE: "E", glfw.KeyR: "R",
	glfw.KeyA: "A", glfw.KeyS: "S", glfw.KeyD: "D", glfw.KeyF: "F",
	glfw.KeyZ: "Z", glfw.KeyX: "X", glfw.KeyC: "C", glfw.KeyV: "V",
}

func lookupKey(key glfw.Key) (uint8, bool) {
	name, ok := glfwKeyNames[key]
	if !ok {
		return 0, false
	}
	k, ok := chip8.ReferenceKeyMap[name]
	return k, ok
}
