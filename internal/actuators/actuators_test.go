package actuators

import (
	"errors"
	"testing"
)

func TestClampPercent(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-50, 0},
		{-1, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{101, 100},
		{1000, 100},
	}
	for _, tt := range tests {
		if got := ClampPercent(tt.in); got != tt.want {
			t.Errorf("ClampPercent(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDutyCycle(t *testing.T) {
	tests := []struct {
		percent, bits, want int
	}{
		{0, 8, 0},
		{100, 8, 255},
		{50, 8, 127},
		{150, 8, 255},
		{-10, 8, 0},
		{100, 10, 1023},
		{100, 0, 255},
		{100, 17, 255},
	}
	for _, tt := range tests {
		if got := DutyCycle(tt.percent, tt.bits); got != tt.want {
			t.Errorf("DutyCycle(%d, %d) = %d, want %d", tt.percent, tt.bits, got, tt.want)
		}
	}
}

// fakeOutputs records every write.
type fakeOutputs struct {
	duties     []int
	humidifier []bool
	fan        []bool
	err        error
}

func (f *fakeOutputs) WriteLightDuty(duty int) error {
	f.duties = append(f.duties, duty)
	return f.err
}

func (f *fakeOutputs) WriteHumidifier(on bool) error {
	f.humidifier = append(f.humidifier, on)
	return f.err
}

func (f *fakeOutputs) WriteExhaustFan(on bool) error {
	f.fan = append(f.fan, on)
	return f.err
}

func TestController_ClampsBeforeMapping(t *testing.T) {
	out := &fakeOutputs{}
	c := NewController(out, 8)

	c.SetLightIntensity(250)
	c.SetLightIntensity(-20)

	if len(out.duties) != 2 || out.duties[0] != 255 || out.duties[1] != 0 {
		t.Errorf("duties = %v, want [255 0]", out.duties)
	}
	if got := c.State(); got.LightPercent != 0 || got.LightDuty != 0 {
		t.Errorf("State() = %+v, want clamped zero", got)
	}
}

func TestController_Switches(t *testing.T) {
	out := &fakeOutputs{}
	c := NewController(out, 0)

	c.SetHumidifier(true)
	c.SetExhaustFan(true)
	c.SetLightIntensity(100)

	want := State{LightPercent: 100, LightDuty: 255, Humidifier: true, ExhaustFan: true}
	if got := c.State(); got != want {
		t.Errorf("State() = %+v, want %+v", got, want)
	}
}

func TestController_WriteErrorKeepsState(t *testing.T) {
	out := &fakeOutputs{}
	c := NewController(out, 8)
	c.SetHumidifier(true)

	out.err = errors.New("relay stuck")
	c.SetHumidifier(false)

	if !c.State().Humidifier {
		t.Error("a failed write should not change the recorded state")
	}
}

func TestLogOutputs(t *testing.T) {
	var o Outputs = LogOutputs{FrequencyHz: 5000}
	if err := o.WriteLightDuty(10); err != nil {
		t.Error(err)
	}
	if err := o.WriteHumidifier(true); err != nil {
		t.Error(err)
	}
	if err := o.WriteExhaustFan(false); err != nil {
		t.Error(err)
	}
}
