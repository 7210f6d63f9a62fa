package seat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCombo(t *testing.T) {
	tests := []struct {
		combo string
		mods  Modifiers
		sym   Keysym
	}{
		{"ctrl+alt+BackSpace", ModCtrl | ModAlt, KeysymBackSpace},
		{"super+Q", ModLogo, KeysymQ},
		{"Mod4+Return", ModLogo, KeysymReturn},
		{"Escape", 0, KeysymEscape},
		{"shift+F5", ModShift, KeysymF1 + 4},
	}
	for _, tt := range tests {
		t.Run(tt.combo, func(t *testing.T) {
			mods, sym, err := ParseCombo(tt.combo)
			require.NoError(t, err)
			assert.Equal(t, tt.mods, mods)
			assert.Equal(t, tt.sym, sym)
		})
	}
}

func TestParseComboErrors(t *testing.T) {
	for _, combo := range []string{"", "hyper+a", "ctrl+", "ctrl+F13", "ctrl+Banana"} {
		_, _, err := ParseCombo(combo)
		assert.ErrorIs(t, err, ErrBadCombo, combo)
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("Quit")
	require.NoError(t, err)
	assert.Equal(t, ActionQuit, a)
	a, err = ParseAction("")
	require.NoError(t, err)
	assert.Equal(t, ActionSpawn, a)
	a, err = ParseAction("tile")
	require.NoError(t, err)
	assert.Equal(t, ActionTile, a)
	_, err = ParseAction("dance")
	assert.Error(t, err)
}

func TestBindingMatches(t *testing.T) {
	quit := Binding{Mods: ModCtrl | ModAlt, Sym: KeysymBackSpace}
	assert.True(t, quit.Matches(KeysymBackSpace, ModCtrl|ModAlt))
	assert.True(t, quit.Matches(KeysymBackSpace, ModCtrl|ModAlt|ModCaps))
	assert.False(t, quit.Matches(KeysymBackSpace, ModCtrl))
	assert.False(t, quit.Matches(KeysymBackSpace, ModCtrl|ModAlt|ModShift))

	logoQ := Binding{Mods: ModLogo, Sym: KeysymQ}
	assert.True(t, logoQ.Matches(Keysym('Q'), ModLogo))

	esc := Binding{Sym: KeysymEscape, AnyMods: true}
	assert.True(t, esc.Matches(KeysymEscape, ModShift|ModCtrl))
	assert.False(t, esc.Matches(KeysymReturn, 0))
}

func TestKeysymNames(t *testing.T) {
	for _, name := range []string{"Escape", "BackSpace", "F1", "F12", "q", "space"} {
		sym, ok := KeysymFromName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, sym.String())
	}
	assert.Equal(t, "ctrl+logo", (ModCtrl | ModLogo).String())
}

func TestSerialCounterSkipsZero(t *testing.T) {
	var c SerialCounter
	assert.Equal(t, Serial(0), c.Last())
	first := c.Next()
	assert.NotZero(t, first)
	assert.Greater(t, c.Next(), first)
}
