package demo

import (
	"errors"
	"testing"

	"github.com/farmdemo/server/internal/action"
	"github.com/farmdemo/server/internal/data"
	"github.com/farmdemo/server/internal/expand"
	"github.com/farmdemo/server/internal/locale"
	"github.com/farmdemo/server/internal/motion"
	"github.com/farmdemo/server/internal/scripting"
	"go.uber.org/zap"
)

const sequencesYAML = `
points:
  - {id: 5, name: A, pointer_type: Plant, x: 300, y: 100, z: 0}
  - {id: 7, name: B, pointer_type: Plant, x: 100, y: 200, z: 0}
peripherals:
  - {id: 2, label: Water, pin: 13}
point_groups:
  - {id: 2, name: Plants, sort_type: xy_ascending, point_ids: [5, 7]}
sequences:
  - id: 1
    name: Basic
    body:
      - kind: wait
        args: {milliseconds: 100}
      - kind: send_message
        args: {message_type: info, message: hello}
      - kind: move_relative
        args: {x: 10, y: 0, z: 0}
  - id: 2
    name: Caller
    body:
      - kind: lua
        args: {lua: 'print("before")'}
      - kind: execute
        args: {sequence_id: 1}
  - id: 3
    name: Forever
    body:
      - kind: lua
        args: {lua: 'print("again")'}
      - kind: execute
        args: {sequence_id: 3}
  - id: 4
    name: Parent
    variables:
      - label: parent
        data_value: {kind: coordinate, args: {x: 1, y: 2, z: 3}}
    body:
      - kind: lua
        args: {lua: 'move_absolute(variable())'}
  - id: 5
    name: Each plant
    variables:
      - label: parent
        data_value: {kind: point_group, args: {point_group_id: 2}}
    body:
      - kind: lua
        args: {lua: 'local p = variable() move_absolute(p.x, p.y, 0)'}
  - id: 6
    name: Missing callee
    body:
      - kind: execute
        args: {sequence_id: 99}
      - kind: toggle_pin
        args:
          pin_number: {kind: named_pin, args: {pin_type: Peripheral, pin_id: 2}}
  - id: 7
    name: Missing group
    variables:
      - label: parent
        data_value: {kind: point_group, args: {point_group_id: 40}}
    body:
      - kind: take_photo
        args: {}
`

type recorder struct {
	batches [][]action.Action
}

func (r *recorder) Submit(actions []action.Action) {
	r.batches = append(r.batches, actions)
}

func newRunner(t *testing.T) (*Runner, *recorder) {
	t.Helper()
	res, err := data.ParseResources([]byte(sequencesYAML))
	if err != nil {
		t.Fatal(err)
	}
	log := zap.NewNop()
	env := data.NewGarden(res, data.NewStore(nil), 0, -500, log)
	exp := expand.New(env, data.NewStore(nil), expand.NewCursor(motion.Xyz{}), expand.Options{
		Workspace: expand.Workspace{Size: motion.Xyz{X: 3000, Y: 1500, Z: 500}, HomeUpZ: true},
	}, log)
	rec := &recorder{}
	return NewRunner(scripting.NewEngine(env, log), res, exp, rec, locale.New("en"), log), rec
}

func assertActions(t *testing.T, got []action.Action, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d actions %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("action %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCollectSteps(t *testing.T) {
	r, _ := newRunner(t)
	actions, err := r.CollectSequenceActions(0, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	assertActions(t, actions,
		`{"type":"wait_ms","args":[100]}`,
		`{"type":"send_message","args":["info","hello"]}`,
		`{"type":"move_relative","args":[10,0,0]}`,
	)
}

func TestCollectFollowsExecute(t *testing.T) {
	r, _ := newRunner(t)
	actions, err := r.CollectSequenceActions(0, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	assertActions(t, actions,
		`{"type":"print","args":["before"]}`,
		`{"type":"wait_ms","args":[100]}`,
		`{"type":"send_message","args":["info","hello"]}`,
		`{"type":"move_relative","args":[10,0,0]}`,
	)
}

func TestCollectStopsAtMaxDepth(t *testing.T) {
	r, _ := newRunner(t)
	actions, err := r.CollectSequenceActions(0, 3, nil)
	if !errors.Is(err, scripting.ErrMaxCallDepth) {
		t.Fatalf("err = %v, want ErrMaxCallDepth", err)
	}
	prints, messages := 0, 0
	for _, a := range actions {
		switch a.Type {
		case action.Print:
			prints++
		case action.SendMessage:
			messages++
		}
	}
	if prints != scripting.MaxCallDepth+1 {
		t.Errorf("prints = %d, want %d", prints, scripting.MaxCallDepth+1)
	}
	if messages != 1 {
		t.Fatalf("messages = %d, want exactly one", messages)
	}
	last := actions[len(actions)-1]
	if last.Str(0) != "error" || last.Str(1) != "Maximum call depth exceeded." {
		t.Errorf("last action = %s", last)
	}
}

func TestCollectVariables(t *testing.T) {
	r, _ := newRunner(t)
	actions, err := r.CollectSequenceActions(0, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	assertActions(t, actions, `{"type":"move_absolute","args":[1,2,3]}`)

	override := []motion.ParameterApplication{{
		Label:     "parent",
		DataValue: motion.DataValue{Kind: motion.ValueCoordinate, Args: motion.DataValueArgs{X: 4, Y: 5, Z: 6}},
	}}
	actions, err = r.CollectSequenceActions(0, 4, override)
	if err != nil {
		t.Fatal(err)
	}
	assertActions(t, actions, `{"type":"move_absolute","args":[4,5,6]}`)
}

func TestMergeVariables(t *testing.T) {
	coord := func(label string, x float64) motion.ParameterApplication {
		return motion.ParameterApplication{Label: label, DataValue: motion.DataValue{
			Kind: motion.ValueCoordinate, Args: motion.DataValueArgs{X: x},
		}}
	}
	got := mergeVariables(
		[]motion.ParameterApplication{coord("a", 1), coord("b", 2)},
		[]motion.ParameterApplication{coord("b", 20), coord("c", 30)},
	)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i].Label != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i].Label, want[i])
		}
	}
	if got[1].DataValue.Args.X != 20 {
		t.Errorf("body variable should win, got %+v", got[1])
	}
}

func TestCollectPointGroupLoop(t *testing.T) {
	r, _ := newRunner(t)
	actions, err := r.CollectSequenceActions(0, 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	var stops []motion.Xyz
	for _, a := range actions {
		switch a.Type {
		case action.MoveAbsolute:
			t.Fatalf("loop iterations should come back expanded, got %s", a)
		case action.ExpandedMoveAbsolute:
			stops = append(stops, motion.Xyz{X: a.Number(0), Y: a.Number(1), Z: a.Number(2)})
		}
	}
	first, second := -1, -1
	for i, p := range stops {
		if p == (motion.Xyz{X: 100, Y: 200}) && first < 0 {
			first = i
		}
		if p == (motion.Xyz{X: 300, Y: 100}) {
			second = i
		}
	}
	if first < 0 || second < 0 || first > second {
		t.Errorf("points visited out of order: %v", stops)
	}
	if stops[len(stops)-1] != (motion.Xyz{X: 300, Y: 100}) {
		t.Errorf("loop ends at %v", stops[len(stops)-1])
	}
}

func TestCollectMissingCallee(t *testing.T) {
	r, _ := newRunner(t)
	actions, err := r.CollectSequenceActions(0, 6, nil)
	if err != nil {
		t.Fatal(err)
	}
	assertActions(t, actions,
		`{"type":"send_message","args":["error","Sequence 99 not found.","toast"]}`,
		`{"type":"toggle_pin","args":[13]}`,
	)
}

func TestCollectMissingGroup(t *testing.T) {
	r, _ := newRunner(t)
	actions, err := r.CollectSequenceActions(0, 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	assertActions(t, actions, `{"type":"send_message","args":["error","Point group 40 not found.","toast"]}`)
}

func TestRunSequence(t *testing.T) {
	r, rec := newRunner(t)
	if err := r.RunSequence(1, nil); err != nil {
		t.Fatal(err)
	}
	if len(rec.batches) != 1 {
		t.Fatalf("batches = %d", len(rec.batches))
	}
	batch := rec.batches[0]
	last := batch[len(batch)-1]
	if last.Type != action.ExpandedMoveAbsolute || last.Number(0) != 10 {
		t.Errorf("last action = %s", last)
	}
	if msg := batch[1]; msg.Type != action.SendMessage || msg.Str(3) == "" {
		t.Errorf("message not stamped with a position: %s", msg)
	}
	if got := r.expander.Cursor().Position(); got != (motion.Xyz{X: 10}) {
		t.Errorf("cursor = %v", got)
	}
}

func TestRunSequenceErrors(t *testing.T) {
	r, rec := newRunner(t)
	if err := r.RunSequence(42, nil); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if len(rec.batches) != 0 {
		t.Errorf("missing sequence submitted %d batches", len(rec.batches))
	}

	if err := r.RunSequence(3, nil); err != nil {
		t.Errorf("depth exceeded should be reported, not returned: %v", err)
	}
	if len(rec.batches) != 1 {
		t.Fatalf("batches = %d", len(rec.batches))
	}
}

func TestRunLuaCode(t *testing.T) {
	r, rec := newRunner(t)
	if err := r.RunLuaCode("move_absolute(300, 0, 0)"); err != nil {
		t.Fatal(err)
	}
	assertActions(t, rec.batches[0],
		`{"type":"wait_ms","args":[250]}`,
		`{"type":"expanded_move_absolute","args":[125,0,0]}`,
		`{"type":"wait_ms","args":[250]}`,
		`{"type":"expanded_move_absolute","args":[250,0,0]}`,
		`{"type":"wait_ms","args":[250]}`,
		`{"type":"expanded_move_absolute","args":[300,0,0]}`,
	)
}

func TestPreviewKeepsCursor(t *testing.T) {
	r, rec := newRunner(t)
	r.expander.Cursor().Set(motion.Xyz{X: 5, Y: 5})
	actions, err := r.Preview(5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) == 0 {
		t.Fatal("preview produced nothing")
	}
	if got := r.expander.Cursor().Position(); got != (motion.Xyz{X: 5, Y: 5}) {
		t.Errorf("cursor moved to %v", got)
	}
	if len(rec.batches) != 0 {
		t.Errorf("preview submitted %d batches", len(rec.batches))
	}
}
