package automation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type keyEvent struct {
	op  string
	key Key
	r   rune
}

type fakeKeyboard struct {
	events []keyEvent
	failOn func(keyEvent) bool
}

func (k *fakeKeyboard) emit(e keyEvent) error {
	if k.failOn != nil && k.failOn(e) {
		return errors.New("injection failed")
	}
	k.events = append(k.events, e)
	return nil
}

func (k *fakeKeyboard) Press(key Key) error   { return k.emit(keyEvent{op: "down", key: key}) }
func (k *fakeKeyboard) Release(key Key) error { return k.emit(keyEvent{op: "up", key: key}) }
func (k *fakeKeyboard) Type(r rune) error     { return k.emit(keyEvent{op: "type", r: r}) }

func TestSpecialKey(t *testing.T) {
	tests := []struct {
		r    rune
		want Key
		ok   bool
	}{
		{'\uE008', KeyShift, true},
		{'\uE009', KeyControl, true},
		{'\uE00A', KeyAlt, true},
		{'\uE007', KeyEnter, true},
		{'\uE01A', KeyNumpad0, true},
		{'\uE023', KeyNumpad0 + 9, true},
		{'\uE031', KeyF1, true},
		{'\uE03C', KeyF1 + 11, true},
		{'\uE03D', KeyLWin, true},
		{'a', 0, false},
		{'\uE006', 0, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%U", tt.r), func(t *testing.T) {
			k, ok := SpecialKey(tt.r)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, k)
			}
		})
	}
}

func TestModifierState(t *testing.T) {
	log := zap.NewNop()

	t.Run("modifier stays held across calls", func(t *testing.T) {
		var m modifierState
		kb := &fakeKeyboard{}

		require.NoError(t, m.apply(kb, []rune{'\uE008'}, log))
		assert.Equal(t, []Key{KeyShift}, m.Held())

		require.NoError(t, m.apply(kb, []rune("ab"), log))
		assert.Equal(t, []Key{KeyShift}, m.Held())

		require.NoError(t, m.apply(kb, []rune{'\uE008'}, log))
		assert.Empty(t, m.Held())
		assert.Equal(t, []keyEvent{
			{op: "down", key: KeyShift},
			{op: "type", r: 'a'},
			{op: "type", r: 'b'},
			{op: "up", key: KeyShift},
		}, kb.events)
	})

	t.Run("release all in reverse order", func(t *testing.T) {
		var m modifierState
		kb := &fakeKeyboard{}

		require.NoError(t, m.apply(kb, []rune{'\uE009', '\uE00A', 'x', ReleaseAllRune}, log))
		assert.Empty(t, m.Held())
		assert.Equal(t, []keyEvent{
			{op: "down", key: KeyControl},
			{op: "down", key: KeyAlt},
			{op: "type", r: 'x'},
			{op: "up", key: KeyAlt},
			{op: "up", key: KeyControl},
		}, kb.events)
	})

	t.Run("release all with nothing held", func(t *testing.T) {
		var m modifierState
		kb := &fakeKeyboard{}
		require.NoError(t, m.apply(kb, []rune{ReleaseAllRune}, log))
		assert.Empty(t, kb.events)
	})

	t.Run("failure rolls back keys pressed by the call", func(t *testing.T) {
		var m modifierState
		kb := &fakeKeyboard{}
		require.NoError(t, m.apply(kb, []rune{'\uE008'}, log))

		kb.failOn = func(e keyEvent) bool { return e.op == "type" }
		err := m.apply(kb, []rune{'\uE009', 'c'}, log)
		require.Error(t, err)

		// Shift came from an earlier call and survives.
		assert.Equal(t, []Key{KeyShift}, m.Held())
		assert.Equal(t, keyEvent{op: "up", key: KeyControl}, kb.events[len(kb.events)-1])
	})

	t.Run("release failure still clears state", func(t *testing.T) {
		var m modifierState
		kb := &fakeKeyboard{}
		require.NoError(t, m.apply(kb, []rune{'\uE008', '\uE009'}, log))

		kb.failOn = func(e keyEvent) bool { return e.op == "up" && e.key == KeyControl }
		err := m.releaseAll(kb, log)
		require.Error(t, err)
		assert.Empty(t, m.Held())
		assert.Equal(t, keyEvent{op: "up", key: KeyShift}, kb.events[len(kb.events)-1])
	})
}
