// Package node assembles an agent from a configuration: radio and link,
// store client, sensor driver, actuator controller and robot arm.
package node
