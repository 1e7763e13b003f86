// Package actuators drives the chamber's light, humidifier and exhaust fan.
//
// Light intensity is given in percent, clamped to [0, 100] and mapped onto
// a PWM duty cycle (8-bit by default, so 100% is 255).
package actuators
