// Package sensors reads the grow chamber's environment: temperature,
// humidity, CO2, substrate moisture and pH.
//
// Drivers implement the Sensors interface. Fixture returns constants,
// Simulated returns seeded pseudo-random values around nominal chamber
// conditions, and Modbus reads a register map from a Modbus TCP gateway,
// falling back to another driver for readings it cannot obtain.
package sensors
