// Package video implements the host video/input collaborator: a
// go-gl/glfw window driven by go-gl/gl, rendering the Framebuffer's
// physical 128x64 grid through its 4-color palette and translating key
// events into a chip8.Latch, matching the teacher repository's choice
// of windowing/rendering toolkit.
package video

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.2/glfw"

	"chip8vm/chip8"
)

func init() {
	runtime.LockOSThread()
}

const renderScale = 8

var (
	vertexShaderGlsl = `
	  #version 410 core
	  in vec2 pos;
	  in vec3 col;
	  out vec3 fragColor;
	  void main() {
	    fragColor = col;
	    gl_Position = vec4(pos, 0.0, 1.0);
	  }` + "\x00"
	fragmentShaderGlsl = `
	  #version 410 core
	  in vec3 fragColor;
	  out vec4 color;
	  void main() {
	    color = vec4(fragColor, 1.0);
	  }` + "\x00"
)

// Window is a driver.Video implementation: a GLFW window that renders
// a chip8.Framebuffer and forwards key events into a chip8.Latch.
type Window struct {
	win      *glfw.Window
	latch    *chip8.Latch
	rotation int

	vao, vbo uint32
	verts    []float32 // reused scratch buffer, pos(2)+color(3) per vertex
}

// NewWindow opens a window sized for the physical 128x64 grid
// (rotation 90/270 swap the two axes), wires the reference key mapping
// into latch, and compiles the quad shader.
func NewWindow(title string, rotation int, latch *chip8.Latch) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, err
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	width, height := chip8.HighWidth, chip8.HighHeight
	if rotation == 90 || rotation == 270 {
		width, height = height, width
	}

	win, err := glfw.CreateWindow(width*renderScale, height*renderScale, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return nil, err
	}

	w := &Window{win: win, latch: latch, rotation: rotation}

	if err := w.compileProgram(); err != nil {
		return nil, err
	}

	win.SetKeyCallback(w.onKey)
	win.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
	})

	gl.ClearColor(0, 0, 0, 1)
	return w, nil
}

func (w *Window) onKey(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		win.SetShouldClose(true)
		return
	}
	k, ok := lookupKey(key)
	if !ok {
		return
	}
	switch action {
	case glfw.Press:
		w.latch.SetKey(k, true)
	case glfw.Release:
		w.latch.SetKey(k, false)
	}
}

func (w *Window) compileProgram() error {
	gl.GenVertexArrays(1, &w.vao)
	gl.BindVertexArray(w.vao)

	gl.GenBuffers(1, &w.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, w.vbo)

	vertexShader := gl.CreateShader(gl.VERTEX_SHADER)
	src, free := gl.Strs(vertexShaderGlsl)
	gl.ShaderSource(vertexShader, 1, src, nil)
	free()
	gl.CompileShader(vertexShader)
	if err := checkShaderError(vertexShader); err != nil {
		return fmt.Errorf("vertex shader: %w", err)
	}

	fragmentShader := gl.CreateShader(gl.FRAGMENT_SHADER)
	src, free = gl.Strs(fragmentShaderGlsl)
	gl.ShaderSource(fragmentShader, 1, src, nil)
	free()
	gl.CompileShader(fragmentShader)
	if err := checkShaderError(fragmentShader); err != nil {
		return fmt.Errorf("fragment shader: %w", err)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.BindFragDataLocation(program, 0, gl.Str("color\x00"))
	gl.LinkProgram(program)
	gl.UseProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var length int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &length)
		infoLog := strings.Repeat("\x00", 1+int(length))
		gl.GetProgramInfoLog(program, length, nil, gl.Str(infoLog))
		return fmt.Errorf("program link error: %s", infoLog)
	}

	stride := int32(5 * 4)
	posAttrib := uint32(gl.GetAttribLocation(program, gl.Str("pos\x00")))
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, stride, gl.PtrOffset(0))

	colAttrib := uint32(gl.GetAttribLocation(program, gl.Str("col\x00")))
	gl.EnableVertexAttribArray(colAttrib)
	gl.VertexAttribPointer(colAttrib, 3, gl.FLOAT, false, stride, gl.PtrOffset(2*4))

	return nil
}

func checkShaderError(shader uint32) error {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var length int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &length)
		infoLog := strings.Repeat("\x00", 1+int(length))
		gl.GetShaderInfoLog(shader, length, nil, gl.Str(infoLog))
		return errors.New(infoLog)
	}
	return nil
}

// PollEvents drains GLFW's event queue, per the driver.Video contract.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// ShouldClose reports whether the window was closed or ESC was
// pressed.
func (w *Window) ShouldClose() bool {
	return w.win.ShouldClose()
}

// Close terminates GLFW. Call once, after the driver's Run returns.
func (w *Window) Close() {
	glfw.Terminate()
}

// Render draws every set cell of fb through its palette, applying the
// configured rotation, and swaps buffers.
func (w *Window) Render(fb *chip8.Framebuffer) {
	gl.Clear(gl.COLOR_BUFFER_BIT)

	outW, outH := chip8.HighWidth, chip8.HighHeight
	if w.rotation == 90 || w.rotation == 270 {
		outW, outH = outH, outW
	}

	w.verts = w.verts[:0]
	for y := 0; y < chip8.HighHeight; y++ {
		for x := 0; x < chip8.HighWidth; x++ {
			cell := fb.Cell(x, y)
			if cell == 0 {
				continue
			}
			ox, oy := rotateCoord(x, y, w.rotation)
			rgb := fb.Palette(int(cell))
			w.verts = appendQuad(w.verts, ox, oy, outW, outH, rgb)
		}
	}

	if len(w.verts) > 0 {
		gl.BindBuffer(gl.ARRAY_BUFFER, w.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, len(w.verts)*4, gl.Ptr(w.verts), gl.DYNAMIC_DRAW)
		gl.BindVertexArray(w.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(w.verts)/5))
	}

	w.win.SwapBuffers()
}

// rotateCoord maps a physical framebuffer cell to its output-window
// cell for the given rotation (0/90/180/270), derived from the
// windowed-display sampling the reference viewer performs in the
// opposite direction.
func rotateCoord(x, y, rotation int) (outX, outY int) {
	switch rotation {
	case 90:
		return chip8.HighHeight - 1 - y, x
	case 180:
		return chip8.HighWidth - 1 - x, chip8.HighHeight - 1 - y
	case 270:
		return y, chip8.HighWidth - 1 - x
	default:
		return x, y
	}
}

// appendQuad appends two triangles covering output cell (cx, cy) of a
// gridW x gridH grid, in the given RGB color, to verts in NDC space.
func appendQuad(verts []float32, cx, cy, gridW, gridH int, rgb [3]uint8) []float32 {
	x0 := -1 + 2*float32(cx)/float32(gridW)
	x1 := -1 + 2*float32(cx+1)/float32(gridW)
	y0 := 1 - 2*float32(cy)/float32(gridH)
	y1 := 1 - 2*float32(cy+1)/float32(gridH)

	r := float32(rgb[0]) / 255
	g := float32(rgb[1]) / 255
	b := float32(rgb[2]) / 255

	return append(verts,
		x0, y0, r, g, b,
		x1, y0, r, g, b,
		x0, y1, r, g, b,

		x1, y0, r, g, b,
		x1, y1, r, g, b,
		x0, y1, r, g, b,
	)
}
