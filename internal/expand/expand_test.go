package expand

import (
	"reflect"
	"testing"

	"github.com/farmdemo/server/internal/action"
	"github.com/farmdemo/server/internal/data"
	"github.com/farmdemo/server/internal/motion"
	"go.uber.org/zap"
)

type stubEnv struct{ safeZ float64 }

func (stubEnv) ToolSlot(int) (motion.Xyz, bool) { return motion.Xyz{}, false }

func (stubEnv) Point(int) (motion.Xyz, bool) { return motion.Xyz{}, false }

func (e stubEnv) SafeZ() float64 { return e.safeZ }

func (stubEnv) SoilHeight(x, y float64) float64 { return -300 }

var genesis = Workspace{Size: motion.Xyz{X: 3000, Y: 1500, Z: 500}}

func newExpander(overrides map[string]string, opts Options) *Expander {
	if opts.Workspace == (Workspace{}) {
		opts.Workspace = genesis
	}
	return New(stubEnv{}, data.NewStore(overrides), NewCursor(motion.Xyz{}), opts, zap.NewNop())
}

func moveTo(x, y, z float64) action.Action {
	return action.New(action.ExpandedMoveAbsolute, x, y, z)
}

func wait(ms float64) action.Action {
	return action.New(action.WaitMs, ms)
}

func assertActions(t *testing.T, got, want []action.Action) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("actions:\n got %v\nwant %v", got, want)
	}
}

func TestExpandChunksDefaultPacing(t *testing.T) {
	e := newExpander(nil, Options{})
	got := e.Expand([]action.Action{action.New(action.MoveAbsolute, 300.0, 0.0, 0.0)}, nil)
	assertActions(t, got, []action.Action{
		wait(250), moveTo(125, 0, 0),
		wait(250), moveTo(250, 0, 0),
		wait(250), moveTo(300, 0, 0),
	})
	if e.Cursor().Position() != (motion.Xyz{X: 300}) {
		t.Errorf("cursor = %v", e.Cursor().Position())
	}
}

func TestExpandExactMultipleHasNoDuplicate(t *testing.T) {
	e := newExpander(nil, Options{})
	got := e.Expand([]action.Action{action.New(action.MoveAbsolute, 250.0, 0.0, 0.0)}, nil)
	assertActions(t, got, []action.Action{
		wait(250), moveTo(125, 0, 0),
		wait(250), moveTo(250, 0, 0),
	})
}

func TestExpandCustomPacing(t *testing.T) {
	e := newExpander(map[string]string{"timeStepMs": "1000", "mmPerSecond": "1000"}, Options{})
	got := e.Expand([]action.Action{action.New(action.MoveAbsolute, 300.0, 0.0, 0.0)}, nil)
	assertActions(t, got, []action.Action{wait(1000), moveTo(300, 0, 0)})
}

func TestExpandChunkingDisabled(t *testing.T) {
	e := newExpander(map[string]string{"DISABLE_CHUNKING": "true"}, Options{})
	got := e.Expand([]action.Action{action.New(action.MoveAbsolute, 1000.0, 0.0, 0.0)}, nil)
	assertActions(t, got, []action.Action{wait(250), moveTo(1000, 0, 0)})
}

func TestExpandClampsTargets(t *testing.T) {
	off := map[string]string{"DISABLE_CHUNKING": "true"}
	e := newExpander(off, Options{})
	got := e.Expand([]action.Action{action.New(action.MoveAbsolute, -5.0, 5000.0, 900.0)}, nil)
	assertActions(t, got, []action.Action{wait(250), moveTo(0, 1500, 500)})

	up := newExpander(off, Options{Workspace: Workspace{Size: genesis.Size, HomeUpZ: true}})
	got = up.Expand([]action.Action{
		action.New(action.MoveAbsolute, 10.0, 10.0, 100.0),
		action.New(action.MoveAbsolute, 10.0, 10.0, -900.0),
	}, nil)
	assertActions(t, got, []action.Action{
		wait(250), moveTo(10, 10, 0),
		wait(250), moveTo(10, 10, -500),
	})
}

func TestExpandMoveRelative(t *testing.T) {
	e := newExpander(map[string]string{"DISABLE_CHUNKING": "true"}, Options{})
	e.Cursor().Set(motion.Xyz{X: 100, Y: 100, Z: 0})
	got := e.Expand([]action.Action{
		action.New(action.MoveRelative, 10.0, -20.0, 30.0),
		action.New(action.MoveRelative, 10.0, 0.0, 0.0),
	}, nil)
	assertActions(t, got, []action.Action{
		wait(250), moveTo(110, 80, 30),
		wait(250), moveTo(120, 80, 30),
	})
}

func TestExpandMoveBodyWarnings(t *testing.T) {
	e := newExpander(map[string]string{"DISABLE_CHUNKING": "true"}, Options{})
	body := `[{"kind":"axis_overwrite","args":{"axis":"x","axis_operand":{"kind":"numeric","args":{"number":40}}}},` +
		`{"kind":"foo","args":{}}]`
	got := e.Expand([]action.Action{action.New(action.Move, body)}, nil)
	assertActions(t, got, []action.Action{
		action.New(action.SendMessage, "warn", "not yet supported: item kind: foo", "", `{"x":0,"y":0,"z":0}`),
		wait(250), moveTo(40, 0, 0),
	})
}

func TestExpandMoveBodyDefaultSafeZ(t *testing.T) {
	e := New(stubEnv{safeZ: 0}, data.NewStore(map[string]string{"DISABLE_CHUNKING": "true"}),
		NewCursor(motion.Xyz{X: 50, Y: 50, Z: 50}), Options{Workspace: genesis, AxisOrder: "safe_z"}, zap.NewNop())
	body := `[{"kind":"axis_overwrite","args":{"axis":"all","axis_operand":{"kind":"numeric","args":{"number":100}}}}]`
	got := e.Expand([]action.Action{action.New(action.Move, body)}, nil)
	assertActions(t, got, []action.Action{
		wait(250), moveTo(50, 50, 0),
		wait(250), moveTo(100, 100, 0),
		wait(250), moveTo(100, 100, 100),
	})
}

func TestExpandMoveBodyVariables(t *testing.T) {
	e := newExpander(map[string]string{"DISABLE_CHUNKING": "true"}, Options{})
	vars := []motion.ParameterApplication{{
		Label: "parent",
		DataValue: motion.DataValue{
			Kind: motion.ValueCoordinate,
			Args: motion.DataValueArgs{X: 7, Y: 8, Z: 9},
		},
	}}
	body := `[{"kind":"axis_overwrite","args":{"axis":"all","axis_operand":{"kind":"identifier","args":{"label":"parent"}}}}]`
	got := e.Expand([]action.Action{action.New(action.Move, body)}, vars)
	assertActions(t, got, []action.Action{wait(250), moveTo(7, 8, 9)})
}

func TestExpandMalformedMoveBody(t *testing.T) {
	e := newExpander(nil, Options{})
	got := e.Expand([]action.Action{action.New(action.Move, "{nope")}, nil)
	if len(got) != 1 || got[0].Type != action.SendMessage || got[0].Str(0) != "error" {
		t.Errorf("got %v", got)
	}
}

func TestExpandStampsMessages(t *testing.T) {
	e := newExpander(nil, Options{})
	e.Cursor().Set(motion.Xyz{X: 1.5, Y: 2, Z: -3})
	got := e.Expand([]action.Action{
		action.New(action.SendMessage, "info", "hello", "toast"),
		action.New(action.SendMessage, "info", "kept", "", `{"x":9,"y":9,"z":9}`),
	}, nil)
	assertActions(t, got, []action.Action{
		action.New(action.SendMessage, "info", "hello", "toast", `{"x":1.5,"y":2,"z":-3}`),
		action.New(action.SendMessage, "info", "kept", "", `{"x":9,"y":9,"z":9}`),
	})
}

func TestExpandCameraMacros(t *testing.T) {
	e := newExpander(nil, Options{Jitter: func() float64 { return 4 }})
	e.Cursor().Set(motion.Xyz{X: 10, Y: 20})
	pos := `{"x":10,"y":20,"z":0}`
	got := e.Expand([]action.Action{
		action.New(action.TakePhoto),
		action.New(action.DetectWeeds),
		action.New(action.MeasureSoilHeight),
	}, nil)
	assertActions(t, got, []action.Action{
		action.New(action.SendMessage, "info", "Taking photo", "", pos, 3.0),
		wait(2000),
		action.New(action.TakePhoto, 10.0, 20.0, 0.0),
		action.New(action.SendMessage, "info", "Uploaded image:", "", pos, 3.0),

		action.New(action.SendMessage, "info", "Running weed detector", "", pos, 3.0),
		wait(12000),
		action.New(action.TakePhoto, 10.0, 20.0, 0.0),
		action.New(action.SendMessage, "info", "Uploaded image:", "", pos, 3.0),
		action.New(action.CreatePoint, `{"name":"Weed","pointer_type":"Weed","x":10,"y":20,"z":-500,`+
			`"meta":{"color":"red","created_by":"plant-detection"},"radius":50,"plant_stage":"pending"}`),

		action.New(action.SendMessage, "info", "Executing Measure Soil Height", "", pos, 3.0),
		wait(12000),
		action.New(action.TakePhoto, 10.0, 20.0, 0.0),
		action.New(action.SendMessage, "info", "Uploaded image:", "", pos, 3.0),
		action.New(action.CreatePoint, `{"name":"Soil Height","pointer_type":"GenericPointer","x":10,"y":20,"z":-496,`+
			`"meta":{"at_soil_level":"true"},"radius":0}`),
	})
}

func TestExpandCalibrateCamera(t *testing.T) {
	e := newExpander(nil, Options{})
	got := e.Expand([]action.Action{action.New(action.CalibrateCamera)}, nil)
	if len(got) != 4 || got[0].Str(1) != "Calibrating camera" || got[1].Number(0) != 12000 {
		t.Errorf("got %v", got)
	}
}

func TestExpandPositionedPhotoPassesThrough(t *testing.T) {
	e := newExpander(nil, Options{})
	photo := action.New(action.TakePhoto, 1.0, 2.0, 3.0)
	assertActions(t, e.Expand([]action.Action{photo}, nil), []action.Action{photo})
}

func TestExpandHomeAll(t *testing.T) {
	e := newExpander(map[string]string{"DISABLE_CHUNKING": "true"}, Options{})
	e.Cursor().Set(motion.Xyz{X: 100, Y: 200, Z: 50})
	got := e.Expand([]action.Action{action.New(action.GoToHome, "all")}, nil)
	assertActions(t, got, []action.Action{
		wait(250), moveTo(100, 200, 0),
		wait(250), moveTo(100, 0, 0),
		wait(250), moveTo(0, 0, 0),
	})
}

func TestExpandFindHomeSingleAxis(t *testing.T) {
	e := newExpander(nil, Options{})
	e.Cursor().Set(motion.Xyz{X: 100, Y: 200, Z: 50})
	got := e.Expand([]action.Action{action.New(action.FindHome, "x")}, nil)
	assertActions(t, got, []action.Action{wait(250), moveTo(0, 200, 50)})
}

func TestExpandPassThrough(t *testing.T) {
	e := newExpander(nil, Options{})
	in := []action.Action{
		action.New(action.WaitMs, 1000.0),
		action.New(action.Print, "hi"),
		action.New(action.WritePin, 13.0, "digital", 1.0),
		action.New(action.EmergencyLock),
		{Type: "sensor_reading", Args: []any{}},
	}
	assertActions(t, e.Expand(in, nil), in)
}

func TestPreviewRestoresCursor(t *testing.T) {
	e := newExpander(nil, Options{})
	e.Cursor().Set(motion.Xyz{X: 5})
	got := e.Preview([]action.Action{action.New(action.MoveAbsolute, 300.0, 0.0, 0.0)}, nil)
	if len(got) == 0 {
		t.Fatal("preview produced nothing")
	}
	if e.Cursor().Position() != (motion.Xyz{X: 5}) {
		t.Errorf("cursor after preview = %v", e.Cursor().Position())
	}
	e.Expand([]action.Action{action.New(action.MoveAbsolute, 300.0, 0.0, 0.0)}, nil)
	if e.Cursor().Position() != (motion.Xyz{X: 300}) {
		t.Errorf("cursor after expand = %v", e.Cursor().Position())
	}
}

func TestChunks(t *testing.T) {
	origin := motion.Xyz{}
	if got := Chunks(origin, origin, 125); !reflect.DeepEqual(got, []motion.Xyz{origin}) {
		t.Errorf("zero length = %v", got)
	}
	target := motion.Xyz{X: 30, Y: 40}
	got := Chunks(origin, target, 20)
	want := []motion.Xyz{{X: 12, Y: 16}, {X: 24, Y: 32}, {X: 30, Y: 40}}
	if len(got) != len(want) {
		t.Fatalf("diagonal chunks = %v", got)
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("chunk %d = %v, want %v", i, got[i], want[i])
		}
	}
	if got := Chunks(origin, target, 0); !reflect.DeepEqual(got, []motion.Xyz{target}) {
		t.Errorf("step 0 = %v", got)
	}
	if got := Chunks(origin, motion.Xyz{X: 10}, 125); !reflect.DeepEqual(got, []motion.Xyz{{X: 10}}) {
		t.Errorf("short move = %v", got)
	}
}

func TestReadPacing(t *testing.T) {
	p := ReadPacing(data.NewStore(nil))
	if p.TimeStepMs != 250 || p.MMPerSecond != 500 || p.MMPerTimeStep() != 125 || p.DisableChunking {
		t.Errorf("default pacing = %+v", p)
	}
}
