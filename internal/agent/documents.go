package agent

import (
	"fmt"

	"github.com/myconode/myconode/internal/sensors"
)

// Document paths on the store, relative to the host.
const (
	PathCurrent      = "sensors/current"
	PathLightControl = "lightControl"
	PathRobotArm     = "robotArm"
	PathAlerts       = "alerts"

	// PathSensorCommands is the queue the dashboard pushes sensor commands to.
	PathSensorCommands = "commands/sensors"
)

// HistoryPath returns the history collection for kind.
func HistoryPath(kind sensors.Kind) string {
	return fmt.Sprintf("sensors/%s/history", kind)
}

// SensorCommandPath returns the queue entry with the given push id.
func SensorCommandPath(id string) string {
	return PathSensorCommands + "/" + id
}

// CurrentReadings is the sensors/current document.
type CurrentReadings struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	CO2         float64 `json:"co2"`
	Moisture    float64 `json:"moisture"`
	PH          float64 `json:"ph"`
	Timestamp   int64   `json:"timestamp"` // unix milliseconds
}

// NewCurrentReadings converts a snapshot to its document form.
func NewCurrentReadings(s sensors.Snapshot) CurrentReadings {
	return CurrentReadings{
		Temperature: s.Temperature,
		Humidity:    s.Humidity,
		CO2:         s.CO2,
		Moisture:    s.Moisture,
		PH:          s.PH,
		Timestamp:   s.Timestamp.UnixMilli(),
	}
}

// HistoryEntry is one point appended to sensors/<kind>/history.
type HistoryEntry struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Light status values.
const (
	LightOn  = "on"
	LightOff = "off"
)

// LightControl is the operator's lighting request.
type LightControl struct {
	Intensity int    `json:"intensity"`
	IsAuto    bool   `json:"isAuto"`
	Status    string `json:"status"`
}

// Robot arm status values.
const (
	ArmIdle      = "idle"
	ArmMoving    = "moving"
	ArmOperating = "operating"
)

// RobotArmCommand is the robotArm document as read from the store.
type RobotArmCommand struct {
	CurrentPlot int    `json:"currentPlot"`
	TargetPlot  int    `json:"targetPlot"`
	Status      string `json:"status"`
	LastAction  string `json:"lastAction"`
}

// RobotArmArrival is the partial update written after a move.
type RobotArmArrival struct {
	CurrentPlot int    `json:"currentPlot"`
	Status      string `json:"status"`
	LastAction  string `json:"lastAction"`
}

// Alert types understood by the dashboard.
const (
	AlertWarning = "warning"
	AlertError   = "error"
	AlertInfo    = "info"
	AlertSuccess = "success"
)

// Alert is a notification posted to the alerts collection.
type Alert struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	Timestamp    int64  `json:"timestamp"`
	Acknowledged bool   `json:"acknowledged"`
}

// Sensor command actions.
const (
	CommandRead      = "read"
	CommandCalibrate = "calibrate"
)

// SensorCommand is one entry of the commands/sensors queue.
type SensorCommand struct {
	SensorType string `json:"sensorType"`
	Action     string `json:"action"`
	Timestamp  int64  `json:"timestamp"`
}
