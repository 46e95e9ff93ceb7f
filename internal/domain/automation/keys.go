package automation

import (
	"go.uber.org/zap"
)

// Key is a platform virtual-key code.
type Key uint16

// Virtual-key codes reachable from the WebDriver key table.
const (
	KeyCancel    Key = 0x03
	KeyBack      Key = 0x08
	KeyTab       Key = 0x09
	KeyClear     Key = 0x0C
	KeyEnter     Key = 0x0D
	KeyShift     Key = 0x10
	KeyControl   Key = 0x11
	KeyAlt       Key = 0x12
	KeyPause     Key = 0x13
	KeyEscape    Key = 0x1B
	KeySpace     Key = 0x20
	KeyPrior     Key = 0x21
	KeyNext      Key = 0x22
	KeyEnd       Key = 0x23
	KeyHome      Key = 0x24
	KeyLeft      Key = 0x25
	KeyUp        Key = 0x26
	KeyRight     Key = 0x27
	KeyDown      Key = 0x28
	KeyInsert    Key = 0x2D
	KeyDelete    Key = 0x2E
	KeyHelp      Key = 0x2F
	KeyLWin      Key = 0x5B
	KeyNumpad0   Key = 0x60
	KeyMultiply  Key = 0x6A
	KeyAdd       Key = 0x6B
	KeySeparator Key = 0x6C
	KeySubtract  Key = 0x6D
	KeyDecimal   Key = 0x6E
	KeyDivide    Key = 0x6F
	KeyF1        Key = 0x70
	KeyOEM1      Key = 0xBA
)

// ReleaseAllRune releases every held key, newest first.
const ReleaseAllRune = '\uE000'

var specialKeys = map[rune]Key{
	'\uE001': KeyCancel,
	'\uE002': KeyHelp,
	'\uE003': KeyBack,
	'\uE004': KeyTab,
	'\uE005': KeyClear,
	'\uE007': KeyEnter,
	'\uE008': KeyShift,
	'\uE009': KeyControl,
	'\uE00A': KeyAlt,
	'\uE00B': KeyPause,
	'\uE00C': KeyEscape,
	'\uE00D': KeySpace,
	'\uE00E': KeyPrior,
	'\uE00F': KeyNext,
	'\uE010': KeyEnd,
	'\uE011': KeyHome,
	'\uE012': KeyLeft,
	'\uE013': KeyUp,
	'\uE014': KeyRight,
	'\uE015': KeyDown,
	'\uE016': KeyInsert,
	'\uE017': KeyDelete,
	'\uE018': KeyOEM1,
	'\uE019': KeySeparator,
	'\uE024': KeyMultiply,
	'\uE025': KeyAdd,
	'\uE026': KeySeparator,
	'\uE027': KeySubtract,
	'\uE028': KeyDecimal,
	'\uE029': KeyDivide,
	'\uE03D': KeyLWin,
}

func init() {
	for i := rune(0); i < 10; i++ {
		specialKeys['\uE01A'+i] = KeyNumpad0 + Key(i)
	}
	for i := rune(0); i < 12; i++ {
		specialKeys['\uE031'+i] = KeyF1 + Key(i)
	}
}

// SpecialKey maps a WebDriver key code point to its virtual key.
func SpecialKey(r rune) (Key, bool) {
	k, ok := specialKeys[r]
	return k, ok
}

// modifierState tracks keys held down across TypeKeys calls. Held keys are
// kept in press order; a key appears at most once.
type modifierState struct {
	held []Key
}

func (m *modifierState) isHeld(k Key) bool {
	for _, h := range m.held {
		if h == k {
			return true
		}
	}
	return false
}

func (m *modifierState) remove(k Key) {
	for i, h := range m.held {
		if h == k {
			m.held = append(m.held[:i], m.held[i+1:]...)
			return
		}
	}
}

// Held returns a copy of the held keys in press order.
func (m *modifierState) Held() []Key {
	out := make([]Key, len(m.held))
	copy(out, m.held)
	return out
}

// releaseAll releases held keys in reverse press order. Every key is
// attempted; the first error is returned.
func (m *modifierState) releaseAll(kb Keyboard, logger *zap.Logger) error {
	var first error
	for i := len(m.held) - 1; i >= 0; i-- {
		k := m.held[i]
		logger.Debug("release key", zap.Uint16("key", uint16(k)))
		if err := kb.Release(k); err != nil && first == nil {
			first = err
		}
	}
	m.held = m.held[:0]
	return first
}

// apply feeds keys through the state machine. Special keys toggle between
// pressed and released, ReleaseAllRune releases everything, and any other
// rune is typed as text. If the keyboard fails, keys pressed by this call
// are released so none stay stuck.
func (m *modifierState) apply(kb Keyboard, keys []rune, logger *zap.Logger) error {
	var pressed []Key
	for _, r := range keys {
		err := m.step(kb, r, logger, &pressed)
		if err == nil {
			continue
		}
		for i := len(pressed) - 1; i >= 0; i-- {
			if !m.isHeld(pressed[i]) {
				continue
			}
			_ = kb.Release(pressed[i])
			m.remove(pressed[i])
		}
		return err
	}
	return nil
}

func (m *modifierState) step(kb Keyboard, r rune, logger *zap.Logger, pressed *[]Key) error {
	if r == ReleaseAllRune {
		return m.releaseAll(kb, logger)
	}

	k, special := SpecialKey(r)
	if !special {
		logger.Debug("type rune", zap.String("rune", string(r)))
		return kb.Type(r)
	}

	if m.isHeld(k) {
		logger.Debug("release key", zap.Uint16("key", uint16(k)))
		if err := kb.Release(k); err != nil {
			return err
		}
		m.remove(k)
		return nil
	}

	logger.Debug("press key", zap.Uint16("key", uint16(k)))
	if err := kb.Press(k); err != nil {
		return err
	}
	m.held = append(m.held, k)
	*pressed = append(*pressed, k)
	return nil
}
