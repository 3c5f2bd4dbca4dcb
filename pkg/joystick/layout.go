package joystick

// Control names shared by every layout.
const (
	LeftStickHorz  = "leftStickHorz"
	LeftStickVert  = "leftStickVert"
	RightStickHorz = "rightStickHorz"
	RightStickVert = "rightStickVert"

	LeftTrigger  = "leftTrigger"
	RightTrigger = "rightTrigger"
	LeftBumper   = "leftBumper"
	RightBumper  = "rightBumper"

	BtnDown  = "btnDown"
	BtnLeft  = "btnLeft"
	BtnUp    = "btnUp"
	BtnRight = "btnRight"

	Function1 = "function1"
	Function2 = "function2"

	DPadUp    = "dPadUp"
	DPadDown  = "dPadDown"
	DPadLeft  = "dPadLeft"
	DPadRight = "dPadRight"
)

// Layout maps raw gamepad indices to control names.
type Layout struct {
	Name    string
	Axes    map[string]int
	Buttons map[string]int
	// Inverted axes are negated so that up and right read positive.
	Inverted map[string]bool
}

// Xbox is an Xbox controller in the standard Gamepad API mapping.
var Xbox = Layout{
	Name: "xbox",
	Axes: map[string]int{
		LeftStickHorz:  0,
		LeftStickVert:  1,
		RightStickHorz: 2,
		RightStickVert: 3,
	},
	Buttons: map[string]int{
		BtnDown:      0, // A
		BtnRight:     1, // B
		BtnLeft:      2, // X
		BtnUp:        3, // Y
		LeftBumper:   4,
		RightBumper:  5,
		LeftTrigger:  6,
		RightTrigger: 7,
		Function1:    8, // back
		Function2:    9, // start
		DPadUp:       12,
		DPadDown:     13,
		DPadLeft:     14,
		DPadRight:    15,
	},
	Inverted: map[string]bool{LeftStickVert: true, RightStickVert: true},
}

// Logitech is a Logitech F310/F710 in DirectInput mode.
var Logitech = Layout{
	Name: "logitech",
	Axes: map[string]int{
		LeftStickHorz:  0,
		LeftStickVert:  1,
		RightStickHorz: 2,
		RightStickVert: 5,
	},
	Buttons: map[string]int{
		BtnLeft:      0, // X
		BtnDown:      1, // A
		BtnRight:     2, // B
		BtnUp:        3, // Y
		LeftBumper:   4,
		RightBumper:  5,
		LeftTrigger:  6,
		RightTrigger: 7,
		Function1:    8,
		Function2:    9,
	},
	Inverted: map[string]bool{LeftStickVert: true, RightStickVert: true},
}

// Layouts lists the supported controllers by name.
var Layouts = map[string]Layout{
	Xbox.Name:     Xbox,
	Logitech.Name: Logitech,
}
