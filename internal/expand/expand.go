// Package expand turns high level actions into the time-stepped primitive
// actions the scheduler plays back.
package expand

import (
	"encoding/json"
	"strings"

	"github.com/farmdemo/server/internal/action"
	"github.com/farmdemo/server/internal/data"
	"github.com/farmdemo/server/internal/motion"
	"go.uber.org/zap"
)

// Camera macro timing. The info message is shown for macroLeadSeconds and
// the rest of the total delay is a plain wait.
const macroLeadSeconds = 3

var macroMessages = map[action.Kind]string{
	action.TakePhoto:         "Taking photo",
	action.CalibrateCamera:   "Calibrating camera",
	action.DetectWeeds:       "Running weed detector",
	action.MeasureSoilHeight: "Executing Measure Soil Height",
}

var macroSeconds = map[action.Kind]float64{
	action.TakePhoto:         5,
	action.CalibrateCamera:   15,
	action.DetectWeeds:       15,
	action.MeasureSoilHeight: 15,
}

// Points created by the camera macros sit at this depth.
const macroPointZ = -500

// Options configures an Expander.
type Options struct {
	Workspace Workspace
	// AxisOrder is the device default axis order applied to move bodies
	// that do not pick one: "safe_z", "<grouping>;<route>" or empty.
	AxisOrder string
	// Jitter, when set, offsets the z of measured soil height points.
	Jitter func() float64
}

// Expander expands actions against a shared position cursor.
type Expander struct {
	env       motion.Environment
	overrides Overrides
	cursor    *Cursor
	opts      Options
	log       *zap.Logger
}

// New creates an Expander.
func New(env motion.Environment, overrides Overrides, cursor *Cursor, opts Options, log *zap.Logger) *Expander {
	return &Expander{
		env:       env,
		overrides: overrides,
		cursor:    cursor,
		opts:      opts,
		log:       log,
	}
}

// Cursor returns the cursor the expander advances.
func (e *Expander) Cursor() *Cursor { return e.cursor }

// Preview expands actions and then puts the cursor back where it was.
func (e *Expander) Preview(actions []action.Action, vars []motion.ParameterApplication) []action.Action {
	stashed := e.cursor.Position()
	defer e.cursor.Set(stashed)
	return e.Expand(actions, vars)
}

// Expand expands actions in order. Moves become wait_ms/expanded_move_absolute
// pairs, camera macros become their message/wait/photo sequence, and
// everything else passes through.
func (e *Expander) Expand(actions []action.Action, vars []motion.ParameterApplication) []action.Action {
	pacing := ReadPacing(e.overrides)
	p := &pass{
		Expander: e,
		pacing:   pacing,
		step:     pacing.MMPerTimeStep(),
		out:      make([]action.Action, 0, len(actions)),
	}
	if pacing.DisableChunking {
		p.step = 0
	}
	for _, a := range actions {
		p.expand(a, vars)
	}
	return p.out
}

type pass struct {
	*Expander
	pacing Pacing
	step   float64
	out    []action.Action
}

func (p *pass) emit(a action.Action) {
	p.out = append(p.out, a)
}

// travel chunks the path from the cursor to target and leaves the cursor
// on target.
func (p *pass) travel(target motion.Xyz) {
	for _, c := range Chunks(p.cursor.Position(), target, p.step) {
		p.emit(action.New(action.WaitMs, float64(p.pacing.TimeStepMs)))
		p.emit(action.New(action.ExpandedMoveAbsolute, c.X, c.Y, c.Z))
	}
	p.cursor.Set(target)
}

func (p *pass) expand(a action.Action, vars []motion.ParameterApplication) {
	switch a.Type {
	case action.MoveAbsolute:
		p.travel(p.opts.Workspace.Clamp(motion.Xyz{
			X: a.Number(0),
			Y: a.Number(1),
			Z: a.Number(2),
		}))

	case action.MoveRelative:
		cur := p.cursor.Position()
		p.travel(p.opts.Workspace.Clamp(motion.Xyz{
			X: cur.X + a.Number(0),
			Y: cur.Y + a.Number(1),
			Z: cur.Z + a.Number(2),
		}))

	case action.Move:
		p.move(a, vars)

	case action.SendMessage:
		if a.Str(3) == "" {
			a = a.With(3, p.cursor.JSON())
		}
		p.emit(a)

	case action.TakePhoto, action.CalibrateCamera, action.DetectWeeds, action.MeasureSoilHeight:
		// A take_photo that already carries a position was produced by an
		// earlier pass.
		if a.Type == action.TakePhoto && len(a.Args) >= 3 {
			p.emit(a)
			return
		}
		p.cameraMacro(a.Type)

	case action.FindHome, action.GoToHome:
		axes := []motion.Axis{motion.Axis(a.Str(0))}
		if a.Str(0) == string(motion.AxisAll) {
			axes = []motion.Axis{motion.AxisZ, motion.AxisY, motion.AxisX}
		}
		for _, axis := range axes {
			target := p.cursor.Position()
			target.Set(axis, 0)
			p.travel(target)
		}

	default:
		p.emit(a)
	}
}

func (p *pass) move(a action.Action, vars []motion.ParameterApplication) {
	body, err := motion.ParseBody(a.Str(0))
	if err != nil {
		p.log.Warn("move body rejected", zap.Error(err))
		p.emit(action.New(action.SendMessage, "error", "invalid move body", "", p.cursor.JSON()))
		return
	}
	body = motion.AddDefaults(body, p.opts.AxisOrder)
	res := motion.CalculateMove(p.env, body, p.cursor.Position(), vars)
	if len(res.Warnings) > 0 {
		p.log.Debug("move body has unsupported items", zap.Strings("warnings", res.Warnings))
		p.emit(action.New(action.SendMessage,
			"warn",
			"not yet supported: "+strings.Join(res.Warnings, ", "),
			"",
			p.cursor.JSON(),
		))
	}
	for _, m := range res.Moves {
		p.travel(p.opts.Workspace.Clamp(m))
	}
}

func (p *pass) cameraMacro(kind action.Kind) {
	cur := p.cursor.Position()
	pos := p.cursor.JSON()
	p.emit(action.New(action.SendMessage, "info", macroMessages[kind], "", pos, float64(macroLeadSeconds)))
	p.emit(action.New(action.WaitMs, (macroSeconds[kind]-macroLeadSeconds)*1000))
	p.emit(action.New(action.TakePhoto, cur.X, cur.Y, cur.Z))
	p.emit(action.New(action.SendMessage, "info", "Uploaded image:", "", pos, float64(macroLeadSeconds)))

	switch kind {
	case action.MeasureSoilHeight:
		z := float64(macroPointZ)
		if p.opts.Jitter != nil {
			z += p.opts.Jitter()
		}
		p.createPoint(data.Point{
			Name:        "Soil Height",
			PointerType: "GenericPointer",
			X:           cur.X,
			Y:           cur.Y,
			Z:           z,
			Meta:        map[string]string{"at_soil_level": "true"},
		})
	case action.DetectWeeds:
		p.createPoint(data.Point{
			Name:        "Weed",
			PointerType: "Weed",
			X:           cur.X,
			Y:           cur.Y,
			Z:           macroPointZ,
			Meta:        map[string]string{"color": "red", "created_by": "plant-detection"},
			Radius:      50,
			PlantStage:  "pending",
		})
	}
}

func (p *pass) createPoint(pt data.Point) {
	b, err := json.Marshal(pt)
	if err != nil {
		p.log.Error("encode point", zap.Error(err))
		return
	}
	p.emit(action.New(action.CreatePoint, string(b)))
}
