package sx1509

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func rd(reg, v byte) i2ctest.IO {
	return i2ctest.IO{Addr: DefaultAddress, W: []byte{reg}, R: []byte{v}}
}

func wr(reg, v byte) i2ctest.IO {
	return i2ctest.IO{Addr: DefaultAddress, W: []byte{reg, v}}
}

func TestInitButtons(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{rd(regDirA, 0x00), wr(regDirA, 0x07)}, DontPanic: true}
	require.NoError(t, New(bus, 0).InitButtons(ButtonMask))
	assert.NoError(t, bus.Close())
}

func TestInitLEDs(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			rd(regDirA, 0xFF),
			rd(regDirB, 0xFF),
			wr(regDirA, 0x1F),
			wr(regDirB, 0x18),
		},
		DontPanic: true,
	}
	require.NoError(t, New(bus, DefaultAddress).InitLEDs())
	assert.NoError(t, bus.Close())
}

func TestSetPinIsActiveLow(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			rd(regDataA, 0xFF), wr(regDataA, 0xDF), // A5 on
			rd(regDataB, 0x00), wr(regDataB, 0x20), // B5 off
		},
		DontPanic: true,
	}
	dev := New(bus, 0)
	require.NoError(t, dev.SetPin(5, true))
	require.NoError(t, dev.SetPin(13, false))
	assert.NoError(t, bus.Close())

	assert.Error(t, dev.SetPin(16, true))
}

func TestSetRGB(t *testing.T) {
	// LED1 green: A5 high (off), A6 low (on), A7 high (off).
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			rd(regDataA, 0x00), wr(regDataA, 0x20),
			rd(regDataA, 0x20), wr(regDataA, 0x20),
			rd(regDataA, 0x20), wr(regDataA, 0xA0),
		},
		DontPanic: true,
	}
	require.NoError(t, New(bus, 0).SetRGB(LED1, Green))
	assert.NoError(t, bus.Close())
}

func TestSetRGBBankB(t *testing.T) {
	// LED3 blue: B5 off, B6 off, B7 on.
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			rd(regDataB, 0x80), wr(regDataB, 0xA0),
			rd(regDataB, 0xA0), wr(regDataB, 0xE0),
			rd(regDataB, 0xE0), wr(regDataB, 0x60),
		},
		DontPanic: true,
	}
	require.NoError(t, New(bus, 0).SetRGB(LED3, Blue))
	assert.NoError(t, bus.Close())
}

func TestSetRGBInvalidLED(t *testing.T) {
	assert.Error(t, New(&i2ctest.Playback{DontPanic: true}, 0).SetRGB(LED(3), Red))
}

func TestButtons(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{rd(regDataA, 0xE5)}, DontPanic: true}
	b, err := New(bus, 0).Buttons()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x05), b)
}

func TestButtonsBusError(t *testing.T) {
	_, err := New(&i2ctest.Playback{DontPanic: true}, 0).Buttons()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sx1509: read reg 0x11")
}

func TestColorString(t *testing.T) {
	assert.Equal(t, "green", Green.String())
	assert.Equal(t, "off", Off.String())
	assert.Equal(t, "rgb(true,true,false)", Color{R: true, G: true}.String())
}

func TestEnableButtonInterrupts(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			rd(regSenseLowA, 0x00), wr(regSenseLowA, 0x3F),
			rd(regInterruptMaskA, 0xFF), wr(regInterruptMaskA, 0xF8),
			wr(regInterruptSourceA, 0xFF),
			wr(regInterruptSourceA, 0xFF),
		},
		DontPanic: true,
	}
	dev := New(bus, 0)
	require.NoError(t, dev.EnableButtonInterrupts(ButtonMask))
	require.NoError(t, dev.ClearInterrupts())
	assert.NoError(t, bus.Close())

	assert.Error(t, dev.EnableButtonInterrupts(0x10))
}
