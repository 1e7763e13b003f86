// Package agent runs the node's sync cycle.
//
// Each cycle reads the sensors, drives the humidifier and exhaust fan from
// the local policy, publishes the readings to the document store, then
// applies the operator's sensor, lighting and robot arm commands. Steps are
// independent: a failed PUT does not stop the GETs that follow, and
// nothing is retried or buffered for a later cycle.
//
// Store documents:
//
//	sensors/current          PUT    latest readings
//	sensors/<kind>/history   POST   one entry per reading
//	commands/sensors         GET    queued read/calibrate requests; each entry cleared with PUT null
//	sensors/current          PATCH  one reading published on request
//	lightControl             GET    intensity, isAuto, status
//	robotArm                 GET    move command; PATCH on arrival
//	alerts                   POST   threshold breaches, edge triggered
package agent
