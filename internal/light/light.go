// Package light implements the Light Controller (L): the bulb's primary
// function. It owns current/target brightness and color temperature, steps
// a smooth transition at 50 Hz, and exposes the read-only feature surface
// the learning engine samples. Nothing here may block.
package light

// PWM abstracts the two-channel warm/cool PWM driver. SetDuty must return
// promptly: it is called from the immediate-set path as well as the 50Hz
// update tick.
type PWM interface {
	SetDuty(channel uint8, duty uint16) error
}

const (
	pwmChannelWarm uint8 = 0
	pwmChannelCool uint8 = 1

	updateHz  = 50
	msPerTick = 1000 / updateHz
)

// Scene is a coarse classification of the current light state, useful as a
// learning engine feature and for diagnostics.
type Scene uint8

const (
	SceneOff Scene = iota
	SceneDimWarm
	SceneCozy
	SceneBrightWarm
	SceneDaylight
	SceneReading
	SceneUnknown
)

// State holds the controller's current and target light values.
type State struct {
	Brightness       uint8
	ColorTemp        uint8
	TargetBrightness uint8
	TargetTemp       uint8
	TransitionSteps  uint16
	On               bool
}

// Controller owns State and drives it toward its target at 50Hz.
type Controller struct {
	pwm   PWM
	state State
}

// New builds a Controller with the reference firmware's boot default: on,
// mid brightness, mid-warm color temperature.
func New(pwm PWM) *Controller {
	return &Controller{
		pwm: pwm,
		state: State{
			Brightness:       100,
			ColorTemp:        50,
			TargetBrightness: 100,
			TargetTemp:       50,
			On:               true,
		},
	}
}

// SetTarget sets a new brightness/color-temp target, arriving instantly if
// transitionMS is 0 or over transitionMS/20 steps of the 50Hz update loop
// otherwise. Must complete fast: no allocation beyond the PWM call itself.
func (c *Controller) SetTarget(brightness, temp uint8, transitionMS uint16) {
	c.state.TargetBrightness = brightness
	c.state.TargetTemp = temp
	c.state.On = brightness > 0

	if transitionMS == 0 {
		c.state.Brightness = brightness
		c.state.ColorTemp = temp
		c.state.TransitionSteps = 0
		c.applyPWM()
		return
	}
	steps := transitionMS / msPerTick
	if steps == 0 {
		steps = 1
	}
	c.state.TransitionSteps = steps
}

// Update advances one 50Hz tick of linear interpolation toward the target
// (remaining delta divided by remaining steps), snapping exactly on the
// final step.
func (c *Controller) Update() {
	if c.state.TransitionSteps == 0 {
		return
	}
	brightDelta := int16(c.state.TargetBrightness) - int16(c.state.Brightness)
	tempDelta := int16(c.state.TargetTemp) - int16(c.state.ColorTemp)

	c.state.Brightness = uint8(int16(c.state.Brightness) + brightDelta/int16(c.state.TransitionSteps))
	c.state.ColorTemp = uint8(int16(c.state.ColorTemp) + tempDelta/int16(c.state.TransitionSteps))
	c.state.TransitionSteps--

	if c.state.TransitionSteps == 0 {
		c.state.Brightness = c.state.TargetBrightness
		c.state.ColorTemp = c.state.TargetTemp
	}
	c.applyPWM()
}

func (c *Controller) applyPWM() {
	if !c.state.On {
		c.pwm.SetDuty(pwmChannelWarm, 0)
		c.pwm.SetDuty(pwmChannelCool, 0)
		return
	}
	warm := uint16(uint32(c.state.Brightness) * uint32(c.state.ColorTemp) * 257 / 100)
	cool := uint16(uint32(c.state.Brightness) * uint32(100-c.state.ColorTemp) * 257 / 100)
	c.pwm.SetDuty(pwmChannelWarm, warm)
	c.pwm.SetDuty(pwmChannelCool, cool)
}

// PowerEstimate returns a 0-100 relative power draw estimate, warm LEDs
// running ~90% as efficient as cool ones.
func (c *Controller) PowerEstimate() uint8 {
	if !c.state.On {
		return 0
	}
	warmPower := uint32(c.state.Brightness) * uint32(c.state.ColorTemp)
	coolPower := uint32(c.state.Brightness) * uint32(100-c.state.ColorTemp)
	return uint8((warmPower*90 + coolPower*100) / 25500)
}

// BrightnessVelocity is the signed brightness delta remaining in the
// current transition, 0 when not transitioning.
func (c *Controller) BrightnessVelocity() int8 {
	if c.state.TransitionSteps == 0 {
		return 0
	}
	return int8(int16(c.state.TargetBrightness) - int16(c.state.Brightness))
}

func (c *Controller) IsOn() bool            { return c.state.On }
func (c *Controller) IsTransitioning() bool { return c.state.TransitionSteps > 0 }
func (c *Controller) Brightness() uint8     { return c.state.Brightness }
func (c *Controller) ColorTemp() uint8      { return c.state.ColorTemp }

// DetectScene classifies the current (on, brightness, color_temp) triple
// into a coarse Scene using fixed thresholds.
func (c *Controller) DetectScene() Scene {
	return classifyScene(c.state.On, c.state.Brightness, c.state.ColorTemp)
}

func classifyScene(on bool, brightness, colorTemp uint8) Scene {
	if !on || brightness < 5 {
		return SceneOff
	}
	isWarm := colorTemp < 40
	isCool := colorTemp > 60
	isDim := brightness < 75
	isBright := brightness > 150

	switch {
	case isDim && isWarm:
		return SceneDimWarm
	case !isBright && isWarm:
		return SceneCozy
	case isBright && isWarm:
		return SceneBrightWarm
	case isBright && isCool:
		return SceneDaylight
	case isBright && !isWarm && !isCool:
		return SceneReading
	default:
		return SceneUnknown
	}
}
