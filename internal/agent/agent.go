package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/myconode/myconode/internal/actuators"
	"github.com/myconode/myconode/internal/logging"
	"github.com/myconode/myconode/internal/netlink"
	"github.com/myconode/myconode/internal/operator"
	"github.com/myconode/myconode/internal/remotesync"
	"github.com/myconode/myconode/internal/robotarm"
	"github.com/myconode/myconode/internal/sensors"
	"go.uber.org/zap"
)

// DefaultInterval is the time between cycles when Options leaves it unset.
const DefaultInterval = 30 * time.Second

// Link is the network link the agent syncs over.
type Link interface {
	Connect(creds netlink.Credentials)
	IsConnected() bool
}

// Store is the document store client. *remotesync.Client implements it.
type Store interface {
	Put(path string, payload []byte) int
	Post(path string, payload []byte, response *[]byte) int
	Get(path string, response *[]byte) int
	Patch(path string, payload []byte) int
}

// Options configures an Agent.
type Options struct {
	Credentials netlink.Credentials
	Policy      Policy
	Interval    time.Duration

	Reconnect bool // reconnect at cycle start when the link is down
	History   bool // append readings to the history collections
	Alerts    bool // post an alert when a reading leaves its range
	Commands  bool // run the dashboard's queued sensor commands
}

// Agent runs the node's sync cycle: read the sensors, control the climate
// locally, publish readings and apply the operator's commands.
type Agent struct {
	link      Link
	store     Store
	sensors   sensors.Sensors
	actuators actuators.Actuators
	arm       robotarm.Arm
	opts      Options
	notifier  operator.Notifier
	now       func() time.Time

	mu         sync.Mutex
	humidifier bool
	breached   map[sensors.Kind]bool
	cycles     int
}

// Option customizes an Agent.
type Option func(*Agent)

// WithArm attaches the robot arm. Without one the robotArm document is not read.
func WithArm(arm robotarm.Arm) Option {
	return func(a *Agent) { a.arm = arm }
}

// WithNotifier sets where cycle and alert events go.
func WithNotifier(n operator.Notifier) Option {
	return func(a *Agent) {
		if n != nil {
			a.notifier = n
		}
	}
}

// WithNow replaces the wall clock used for timestamps and the light window.
func WithNow(now func() time.Time) Option {
	return func(a *Agent) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an agent.
func New(link Link, store Store, s sensors.Sensors, act actuators.Actuators, opts Options, options ...Option) *Agent {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	a := &Agent{
		link:      link,
		store:     store,
		sensors:   s,
		actuators: act,
		opts:      opts,
		notifier:  operator.Nop{},
		now:       time.Now,
		breached:  make(map[sensors.Kind]bool),
	}
	for _, o := range options {
		o(a)
	}
	return a
}

// StepResult is the status code of one store operation in a cycle.
// Zero means the step was skipped.
type StepResult struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	Status int    `json:"status"`
}

// OK reports whether the step reached the store and got a 2xx answer.
func (r StepResult) OK() bool {
	return remotesync.IsSuccess(r.Status)
}

// CycleReport records what one cycle did.
type CycleReport struct {
	Cycle       int              `json:"cycle"`
	Started     time.Time        `json:"started"`
	Reconnected bool             `json:"reconnected"`
	Linked      bool             `json:"linked"`
	Snapshot    sensors.Snapshot `json:"-"`
	Readings    CurrentReadings  `json:"readings"`
	Humidifier  bool             `json:"humidifier"`
	ExhaustFan  bool             `json:"exhaustFan"`

	Current StepResult   `json:"current"`
	History []StepResult `json:"history,omitempty"`

	SensorCommands StepResult      `json:"sensorCommands"`
	CommandsRun    []CommandResult `json:"commandsRun,omitempty"`

	LightControl   StepResult `json:"lightControl"`
	LightIntensity int        `json:"lightIntensity"` // -1 when unchanged

	RobotArm   StepResult   `json:"robotArm"`
	ArmMovedTo int          `json:"armMovedTo,omitempty"`
	ArmArrival StepResult   `json:"armArrival"`
	ArmMoveErr string       `json:"armMoveError,omitempty"`
	AlertsSent []StepResult `json:"alerts,omitempty"`
}

// CommandResult records one dashboard sensor command.
type CommandResult struct {
	ID        string     `json:"id"`
	Sensor    string     `json:"sensor"`
	Action    string     `json:"action"`
	Value     float64    `json:"value,omitempty"`
	Published StepResult `json:"published"`
	Cleared   StepResult `json:"cleared"`
	Err       string     `json:"error,omitempty"`
}

// RunOnce performs one cycle. A failed step never stops the steps after it
// and nothing is retried or queued for a later cycle.
func (a *Agent) RunOnce() CycleReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cycles++
	report := CycleReport{
		Cycle:          a.cycles,
		Started:        a.now(),
		LightIntensity: -1,
	}

	// 1. Link
	if a.opts.Reconnect && !a.link.IsConnected() {
		logging.Warn("Link down, reconnecting", zap.String("network", a.opts.Credentials.NetworkName))
		a.link.Connect(a.opts.Credentials)
		report.Reconnected = true
	}
	report.Linked = a.link.IsConnected()

	// 2-3. Sensors and local climate control run with or without a link.
	snap := sensors.Read(a.sensors, a.now())
	report.Snapshot = snap
	report.Readings = NewCurrentReadings(snap)
	a.humidifier, report.ExhaustFan = a.opts.Policy.apply(a.actuators, snap, a.humidifier)
	report.Humidifier = a.humidifier

	// 4. Publish readings
	report.Current = a.put(PathCurrent, report.Readings)
	if a.opts.History {
		ts := snap.Timestamp.UnixMilli()
		for _, kind := range sensors.Kinds {
			report.History = append(report.History,
				a.post(HistoryPath(kind), HistoryEntry{Timestamp: ts, Value: snap.Value(kind)}))
		}
	}

	// 5. Dashboard sensor commands
	if a.opts.Commands {
		a.syncCommands(&report)
	}

	// 6. Lighting
	report.LightControl, report.LightIntensity = a.syncLight()

	// 7. Robot arm
	if a.arm != nil {
		a.syncArm(&report)
	}

	// 8. Alerts
	if a.opts.Alerts {
		report.AlertsSent = a.raiseAlerts(snap)
	}

	logging.Info("Cycle complete",
		zap.Int("cycle", report.Cycle),
		zap.Bool("linked", report.Linked),
		zap.Int("current_status", report.Current.Status),
		zap.Int("light_status", report.LightControl.Status),
		zap.Int("arm_status", report.RobotArm.Status),
		zap.Float64("temperature", snap.Temperature),
		zap.Float64("humidity", snap.Humidity),
	)
	a.notifier.Notify(operator.NewEvent(operator.KindCycle, fmt.Sprintf("Cycle %d complete", report.Cycle), map[string]any{
		"linked":         report.Linked,
		"current_status": report.Current.Status,
		"light_status":   report.LightControl.Status,
		"arm_status":     report.RobotArm.Status,
		"humidifier":     report.Humidifier,
		"exhaust_fan":    report.ExhaustFan,
		"temperature":    snap.Temperature,
		"humidity":       snap.Humidity,
		"co2":            snap.CO2,
		"moisture":       snap.Moisture,
		"ph":             snap.PH,
	}))

	return report
}

// Run performs a cycle immediately and then one per interval until ctx is
// done. Cycles never overlap: a slow cycle delays the next tick.
func (a *Agent) Run(ctx context.Context) error {
	logging.Info("Agent started", zap.Duration("interval", a.opts.Interval))

	a.RunOnce()

	ticker := time.NewTicker(a.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info("Agent stopped", zap.Int("cycles", a.Cycles()))
			return ctx.Err()
		case <-ticker.C:
			a.RunOnce()
		}
	}
}

// Cycles returns how many cycles have run.
func (a *Agent) Cycles() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cycles
}

func (a *Agent) syncLight() (StepResult, int) {
	var body []byte
	res := StepResult{Path: PathLightControl, Method: "GET"}
	res.Status = a.store.Get(PathLightControl, &body)
	if !res.OK() {
		return res, -1
	}

	var lc LightControl
	if err := json.Unmarshal(body, &lc); err != nil {
		logging.Warn("Ignoring malformed lightControl document", zap.Error(err))
		return res, -1
	}

	intensity := a.opts.Policy.LightIntensity(lc, a.now())
	a.actuators.SetLightIntensity(intensity)
	return res, actuators.ClampPercent(intensity)
}

func (a *Agent) syncArm(report *CycleReport) {
	var body []byte
	report.RobotArm = StepResult{Path: PathRobotArm, Method: "GET"}
	report.RobotArm.Status = a.store.Get(PathRobotArm, &body)
	if !report.RobotArm.OK() {
		return
	}

	var cmd RobotArmCommand
	if err := json.Unmarshal(body, &cmd); err != nil {
		logging.Warn("Ignoring malformed robotArm document", zap.Error(err))
		return
	}
	if cmd.Status != ArmMoving || cmd.TargetPlot == cmd.CurrentPlot {
		return
	}

	if err := a.arm.MoveToPlot(cmd.TargetPlot); err != nil {
		logging.Error("Robot arm move failed", zap.Int("target_plot", cmd.TargetPlot), zap.Error(err))
		report.ArmMoveErr = err.Error()
		return
	}
	report.ArmMovedTo = cmd.TargetPlot

	arrival := RobotArmArrival{
		CurrentPlot: cmd.TargetPlot,
		Status:      ArmIdle,
		LastAction:  fmt.Sprintf("Moved to plot %d", cmd.TargetPlot),
	}
	report.ArmArrival = a.patch(PathRobotArm, arrival)

	a.notifier.Notify(operator.NewEvent(operator.KindArmMoved, arrival.LastAction, map[string]any{
		"from_plot": cmd.CurrentPlot,
		"to_plot":   cmd.TargetPlot,
		"status":    report.ArmArrival.Status,
	}))
}

// syncCommands runs the queued sensor commands oldest first. Every entry
// is cleared after its single attempt, so a failed read is not repeated.
func (a *Agent) syncCommands(report *CycleReport) {
	var body []byte
	report.SensorCommands = StepResult{Path: PathSensorCommands, Method: "GET"}
	report.SensorCommands.Status = a.store.Get(PathSensorCommands, &body)
	if !report.SensorCommands.OK() {
		a.logStep(report.SensorCommands)
		return
	}

	var queue map[string]SensorCommand
	if err := json.Unmarshal(body, &queue); err != nil {
		logging.Warn("Ignoring malformed sensor command queue", zap.Error(err))
		return
	}

	ids := make([]string, 0, len(queue))
	for id := range queue {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := queue[ids[i]].Timestamp, queue[ids[j]].Timestamp
		if ti != tj {
			return ti < tj
		}
		return ids[i] < ids[j]
	})

	for _, id := range ids {
		report.CommandsRun = append(report.CommandsRun, a.runCommand(id, queue[id]))
	}
}

func (a *Agent) runCommand(id string, cmd SensorCommand) CommandResult {
	res := CommandResult{ID: id, Sensor: cmd.SensorType, Action: cmd.Action}

	kind, err := sensors.ParseKind(cmd.SensorType)
	switch {
	case err != nil:
		res.Err = err.Error()
	case cmd.Action == CommandRead:
		value, _ := sensors.ReadKind(a.sensors, kind)
		res.Value = value
		res.Published = a.patch(PathCurrent, map[string]any{
			string(kind): value,
			"timestamp":  a.now().UnixMilli(),
		})
		a.notifier.Notify(operator.NewEvent(operator.KindSensorCommand,
			fmt.Sprintf("Read %s on request: %.1f%s", kind, value, kind.Unit()),
			map[string]any{"id": id, "sensor": string(kind), "value": value, "status": res.Published.Status}))
	case cmd.Action == CommandCalibrate:
		// The drivers have no calibration routine; the request is surfaced to the operator.
		a.notifier.Notify(operator.NewEvent(operator.KindSensorCommand,
			fmt.Sprintf("Calibration requested for %s", kind),
			map[string]any{"id": id, "sensor": string(kind)}))
	default:
		res.Err = fmt.Sprintf("unknown action %q", cmd.Action)
	}
	if res.Err != "" {
		logging.Warn("Ignoring sensor command", zap.String("id", id), zap.String("reason", res.Err))
	}

	res.Cleared = a.put(SensorCommandPath(id), nil)
	return res
}

// raiseAlerts posts one alert per reading that left its range since the
// previous cycle. A reading back in range re-arms its alert.
func (a *Agent) raiseAlerts(snap sensors.Snapshot) []StepResult {
	out := make(map[sensors.Kind]bool)
	for _, kind := range a.opts.Policy.Breaches(snap) {
		out[kind] = true
	}

	var sent []StepResult
	for _, kind := range sensors.Kinds {
		if !out[kind] {
			a.breached[kind] = false
			continue
		}
		if a.breached[kind] {
			continue
		}
		a.breached[kind] = true

		alert := Alert{
			Type:      AlertWarning,
			Message:   a.opts.Policy.AlertMessage(kind, snap.Value(kind)),
			Timestamp: snap.Timestamp.UnixMilli(),
		}
		res := a.post(PathAlerts, alert)
		sent = append(sent, res)

		a.notifier.Notify(operator.NewEvent(operator.KindAlert, alert.Message, map[string]any{
			"sensor": string(kind),
			"value":  snap.Value(kind),
			"status": res.Status,
		}))
	}
	return sent
}

func (a *Agent) put(path string, doc any) StepResult {
	res := StepResult{Path: path, Method: "PUT"}
	payload, err := json.Marshal(doc)
	if err != nil {
		logging.Error("Failed to encode document", zap.String("path", path), zap.Error(err))
		return res
	}
	res.Status = a.store.Put(path, payload)
	a.logStep(res)
	return res
}

func (a *Agent) post(path string, doc any) StepResult {
	res := StepResult{Path: path, Method: "POST"}
	payload, err := json.Marshal(doc)
	if err != nil {
		logging.Error("Failed to encode document", zap.String("path", path), zap.Error(err))
		return res
	}
	res.Status = a.store.Post(path, payload, nil)
	a.logStep(res)
	return res
}

func (a *Agent) patch(path string, doc any) StepResult {
	res := StepResult{Path: path, Method: "PATCH"}
	payload, err := json.Marshal(doc)
	if err != nil {
		logging.Error("Failed to encode document", zap.String("path", path), zap.Error(err))
		return res
	}
	res.Status = a.store.Patch(path, payload)
	a.logStep(res)
	return res
}

func (a *Agent) logStep(res StepResult) {
	if res.OK() {
		return
	}
	logging.Warn("Sync step failed",
		zap.String("method", res.Method),
		zap.String("path", res.Path),
		zap.Int("status", res.Status),
		zap.String("reason", remotesync.Describe(res.Status)),
	)
}
