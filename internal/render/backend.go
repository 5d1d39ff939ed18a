// Package render projects the grid onto a terminal. The same view renders
// the interactive editor and the read-only mode; read-only is purely a
// rendering switch and never changes the model.
package render

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Backend is the drawing surface the view renders to.
type Backend interface {
	Size() (int, int)
	SetContent(x, y int, r rune, style tcell.Style)
	Clear()
	Show()
}

// Terminal is the tcell-backed Backend used by the demo binary.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
}

// NewTerminal creates an uninitialized terminal backend.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

// Init initializes the screen and enables mouse and bracketed paste.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.EnableMouse()
	t.screen.EnablePaste()
	return nil
}

// Shutdown restores the terminal.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Fini()
}

// Size returns the screen dimensions.
func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen.Size()
}

// SetContent draws one rune.
func (t *Terminal) SetContent(x, y int, r rune, style tcell.Style) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.SetContent(x, y, r, nil, style)
}

// Clear clears the back buffer.
func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Clear()
}

// Show flushes the back buffer to the terminal.
func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Show()
}

// PollEvent blocks for the next terminal event.
func (t *Terminal) PollEvent() tcell.Event {
	return t.screen.PollEvent()
}

// PostQuit interrupts a blocked PollEvent during shutdown.
func (t *Terminal) PostQuit() {
	t.screen.PostEvent(tcell.NewEventInterrupt(nil)) //nolint:errcheck
}

// Buffer is a headless Backend capturing draws for tests.
type Buffer struct {
	width, height int
	runes         [][]rune
	styles        [][]tcell.Style
	shows         int
}

// NewBuffer creates a headless backend of the given size.
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{width: width, height: height}
	b.runes = make([][]rune, height)
	b.styles = make([][]tcell.Style, height)
	for y := range b.runes {
		b.runes[y] = make([]rune, width)
		b.styles[y] = make([]tcell.Style, width)
		for x := range b.runes[y] {
			b.runes[y][x] = ' '
		}
	}
	return b
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() (int, int) { return b.width, b.height }

// SetContent records one rune.
func (b *Buffer) SetContent(x, y int, r rune, style tcell.Style) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	b.runes[y][x] = r
	b.styles[y][x] = style
}

// Clear resets the buffer to spaces.
func (b *Buffer) Clear() {
	for y := range b.runes {
		for x := range b.runes[y] {
			b.runes[y][x] = ' '
			b.styles[y][x] = tcell.StyleDefault
		}
	}
}

// Show counts flushes.
func (b *Buffer) Show() { b.shows++ }

// Line returns one rendered row as a string.
func (b *Buffer) Line(y int) string {
	if y < 0 || y >= b.height {
		return ""
	}
	return string(b.runes[y])
}

// StyleAt returns the style recorded at a position.
func (b *Buffer) StyleAt(x, y int) tcell.Style {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return tcell.StyleDefault
	}
	return b.styles[y][x]
}
