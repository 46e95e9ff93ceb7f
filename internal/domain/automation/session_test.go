package automation_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
	"github.com/GriffinCanCode/deskdriver/internal/providers/virtual"
	"github.com/GriffinCanCode/deskdriver/internal/shared/id"
)

func TestSessionFindElement(t *testing.T) {
	e := newEnv(t)
	s := e.session(t, automation.Capabilities{App: "calc.exe"})

	t.Run("each find registers a new handle", func(t *testing.T) {
		a := e.find(t, s, "accessibility id", "num1Button")
		b := e.find(t, s, "accessibility id", "num1Button")
		assert.NotEqual(t, a, b)
	})

	t.Run("scoped to parent", func(t *testing.T) {
		ops := e.find(t, s, "accessibility id", "StandardOperators")
		loc, err := automation.ParseLocator("tag name", "Button")
		require.NoError(t, err)

		first, err := s.FindElement(ops, loc)
		require.NoError(t, err)
		name, err := s.Attribute(first, "Name")
		require.NoError(t, err)
		require.NotNil(t, name)
		assert.Equal(t, "Plus", *name)
	})

	t.Run("not found", func(t *testing.T) {
		loc, err := automation.ParseLocator("name", "Nope")
		require.NoError(t, err)
		_, err = s.FindElement("", loc)
		assert.ErrorIs(t, err, automation.ErrNotFound)

		_, err = s.FindElements("", loc)
		assert.ErrorIs(t, err, automation.ErrNotFound)
	})

	t.Run("unknown parent", func(t *testing.T) {
		loc, err := automation.ParseLocator("name", "One")
		require.NoError(t, err)
		_, err = s.FindElement(id.ElementID("missing"), loc)
		assert.ErrorIs(t, err, automation.ErrNotFound)
	})

	t.Run("find all in document order", func(t *testing.T) {
		loc, err := automation.ParseLocator("tag name", "Button")
		require.NoError(t, err)
		ids, err := s.FindElements("", loc)
		require.NoError(t, err)
		require.Len(t, ids, 6)

		name, err := s.Attribute(ids[3], "Name")
		require.NoError(t, err)
		assert.Equal(t, "Plus", *name)
	})
}

func TestSessionXPath(t *testing.T) {
	e := newEnv(t)
	s := e.session(t, automation.Capabilities{App: "calc.exe"})

	tests := []struct {
		expr string
		want []string
	}{
		{"//Button[@AutomationId='num2Button']", []string{"Two"}},
		{"/Window/Group[@Name='Number pad']/Button", []string{"One", "Two", "Three"}},
		{"//ListItem", []string{"Standard", "Scientific"}},
		{"//Button[@IsEnabled='false']", []string{"Clear"}},
		{"//*[@AutomationId='Precision']", []string{"Precision"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			loc, err := automation.ParseLocator("xpath", tt.expr)
			require.NoError(t, err)
			ids, err := s.FindElements("", loc)
			require.NoError(t, err)

			var names []string
			for _, eid := range ids {
				n, err := s.Attribute(eid, "Name")
				require.NoError(t, err)
				names = append(names, *n)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	t.Run("invalid expression", func(t *testing.T) {
		loc, err := automation.ParseLocator("xpath", "//Button[")
		require.NoError(t, err)
		_, err = s.FindElement("", loc)
		assert.ErrorIs(t, err, automation.ErrValidation)
	})
}

func TestParseLocator(t *testing.T) {
	tests := []struct {
		using, value string
		kind         automation.Kind
	}{
		{"accessibility id", "x", automation.KindUnknown},
		{"class name", "Edit", automation.KindUnknown},
		{"tag name", "Button", automation.KindUnknown},
		{"tag name", "Widget", automation.KindValidation},
		{"css selector", "div", automation.KindNotSupported},
		{"id", "x", automation.KindNotSupported},
	}
	for _, tt := range tests {
		t.Run(tt.using+"="+tt.value, func(t *testing.T) {
			_, err := automation.ParseLocator(tt.using, tt.value)
			if tt.kind == automation.KindUnknown {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.kind, automation.KindOf(err))
		})
	}
}

func TestSessionElementState(t *testing.T) {
	e := newEnv(t)
	s := e.session(t, automation.Capabilities{App: "calc.exe"})

	results := e.find(t, s, "accessibility id", "CalculatorResults")
	text, err := s.Text(results)
	require.NoError(t, err)
	assert.Equal(t, "0", text)

	precision := e.find(t, s, "accessibility id", "Precision")
	text, err = s.Text(precision)
	require.NoError(t, err)
	assert.Equal(t, "50", text)

	// Without a text, value or range pattern the name is the text.
	one := e.find(t, s, "accessibility id", "num1Button")
	text, err = s.Text(one)
	require.NoError(t, err)
	assert.Equal(t, "One", text)

	clear := e.find(t, s, "accessibility id", "clearButton")
	enabled, err := s.IsEnabled(clear)
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Error(t, s.Click(clear))

	secret := e.find(t, s, "accessibility id", "Secret")
	shown, err := s.IsDisplayed(secret)
	require.NoError(t, err)
	assert.False(t, shown)

	scientific := e.find(t, s, "name", "Scientific")
	standard := e.find(t, s, "name", "Standard")
	require.NoError(t, s.Click(scientific))
	sel, err := s.IsSelected(scientific)
	require.NoError(t, err)
	assert.True(t, sel)
	sel, err = s.IsSelected(standard)
	require.NoError(t, err)
	assert.False(t, sel)

	sel, err = s.IsSelected(one)
	require.NoError(t, err)
	assert.False(t, sel)

	missing, err := s.Attribute(one, "NoSuchProperty")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionTextEntry(t *testing.T) {
	e := newEnv(t)
	s := e.session(t, automation.Capabilities{App: "notepad.exe"})
	edit := e.find(t, s, "accessibility id", "15")

	require.NoError(t, s.SendKeys(edit, "hello"))
	require.NoError(t, s.SendKeys(edit, " world"))
	text, err := s.Text(edit)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	require.NoError(t, s.Clear(edit))
	text, err = s.Text(edit)
	require.NoError(t, err)
	assert.Empty(t, text)

	r, err := s.Rect(edit)
	require.NoError(t, err)
	assert.Equal(t, automation.Rect{X: 108, Y: 150, Width: 784, Height: 520}, r)
}

func TestSessionTypeKeys(t *testing.T) {
	e := newEnv(t)
	s := e.session(t, automation.Capabilities{App: "notepad.exe"})
	edit := e.find(t, s, "accessibility id", "15")
	require.NoError(t, s.SendKeys(edit, ""))
	e.provider.ResetEvents()

	require.NoError(t, s.TypeKeys([]rune{'\uE008', 'h', 'i'}))
	assert.Equal(t, []automation.Key{automation.KeyShift}, s.HeldKeys())

	text, err := s.Text(edit)
	require.NoError(t, err)
	assert.Equal(t, "hi", text)

	require.NoError(t, s.Close())
	events := e.provider.InputEvents()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, virtual.EventKeyUp, last.Kind)
	assert.Equal(t, automation.KeyShift, last.Key)
}

func TestSessionWindows(t *testing.T) {
	e := newEnv(t)

	t.Run("launched app", func(t *testing.T) {
		s := e.session(t, automation.Capabilities{App: "notepad.exe"})
		title, err := s.WindowTitle()
		require.NoError(t, err)
		assert.Equal(t, "Untitled - Notepad", title)

		handle, err := s.WindowHandle()
		require.NoError(t, err)
		handles, err := s.WindowHandles()
		require.NoError(t, err)
		assert.Equal(t, []string{handle}, handles)

		rect, err := s.WindowRect()
		require.NoError(t, err)
		assert.Equal(t, automation.Rect{X: 100, Y: 100, Width: 800, Height: 600}, rect)

		err = s.SwitchToWindow("nope")
		assert.ErrorIs(t, err, automation.ErrNotFound)

		require.NoError(t, s.CloseWindow())
		_, err = s.WindowTitle()
		assert.Error(t, err)
	})

	t.Run("root sees every top-level window", func(t *testing.T) {
		app := e.session(t, automation.Capabilities{App: "calc.exe"})
		calcHandle, err := app.WindowHandle()
		require.NoError(t, err)

		root := e.session(t, automation.Capabilities{App: automation.RootApplication})
		title, err := root.WindowTitle()
		require.NoError(t, err)
		assert.Equal(t, "Desktop 1", title)

		handles, err := root.WindowHandles()
		require.NoError(t, err)
		assert.Contains(t, handles, calcHandle)

		require.NoError(t, root.SwitchToWindow(calcHandle))
		title, err = root.WindowTitle()
		require.NoError(t, err)
		assert.Equal(t, "Calculator", title)

		require.NoError(t, root.CloseWindow())
		_, err = app.WindowTitle()
		assert.Error(t, err)
	})
}

func TestSessionSourceAndScreenshot(t *testing.T) {
	e := newEnv(t)
	s := e.session(t, automation.Capabilities{App: "notepad.exe"})

	src, err := s.Source()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(src, "<?xml"))
	assert.Contains(t, src, `<Window AutomationId="" ClassName="Notepad" Name="Untitled - Notepad"`)
	assert.Contains(t, src, `<MenuItem AutomationId="" ClassName="" Name="File"`)
	assert.Contains(t, src, `</Window>`)

	shot, err := s.Screenshot()
	require.NoError(t, err)
	png, err := base64.StdEncoding.DecodeString(shot)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))
}

func TestSessionClose(t *testing.T) {
	e := newEnv(t)

	t.Run("launched app is closed", func(t *testing.T) {
		s := e.session(t, automation.Capabilities{App: "notepad.exe"})
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())

		_, err := s.WindowTitle()
		assert.ErrorIs(t, err, automation.ErrNotFound)
		assert.Zero(t, s.HandleCount())
	})

	t.Run("root session leaves windows open", func(t *testing.T) {
		app := e.session(t, automation.Capabilities{App: "calc.exe"})
		root := e.session(t, automation.Capabilities{App: automation.RootApplication})
		require.NoError(t, root.Close())

		_, err := app.WindowTitle()
		assert.NoError(t, err)
	})

	t.Run("exited app is released without error", func(t *testing.T) {
		s := e.session(t, automation.Capabilities{App: "calc.exe"})
		require.NoError(t, s.CloseWindow())
		assert.NoError(t, s.Close())
	})
}

func TestSessionExecuteScript(t *testing.T) {
	e := newEnv(t)
	s := e.session(t, automation.Capabilities{App: automation.RootApplication})

	_, err := s.ExecuteScript(context.Background(), "windows: hover", raw(`{"endX":5,"endY":6}`))
	require.NoError(t, err)
	x, y := e.provider.Pointer()
	assert.Equal(t, 5, x)
	assert.Equal(t, 6, y)

	require.NoError(t, s.Close())
	_, err = s.ExecuteScript(context.Background(), "hover", raw(`{"endX":1,"endY":1}`))
	assert.ErrorIs(t, err, automation.ErrNotFound)
}
