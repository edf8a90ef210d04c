// Package demo ties the interpreter together: it runs Lua code and stored
// sequences, expands what they emit and hands the result to the scheduler.
package demo

import (
	"errors"
	"fmt"

	"github.com/farmdemo/server/internal/action"
	"github.com/farmdemo/server/internal/data"
	"github.com/farmdemo/server/internal/expand"
	"github.com/farmdemo/server/internal/locale"
	"github.com/farmdemo/server/internal/motion"
	"github.com/farmdemo/server/internal/scripting"
	"go.uber.org/zap"
)

// Scheduler plays expanded actions back.
type Scheduler interface {
	Submit(actions []action.Action)
}

// Runner runs demo programs.
type Runner struct {
	engine   *scripting.Engine
	res      *data.Resources
	expander *expand.Expander
	sched    Scheduler
	tr       *locale.Translator
	log      *zap.Logger
}

func NewRunner(engine *scripting.Engine, res *data.Resources, expander *expand.Expander, sched Scheduler, tr *locale.Translator, log *zap.Logger) *Runner {
	return &Runner{
		engine:   engine,
		res:      res,
		expander: expander,
		sched:    sched,
		tr:       tr,
		log:      log,
	}
}

// RunLuaCode runs code with no variables bound and schedules the result.
func (r *Runner) RunLuaCode(code string) error {
	actions, err := r.engine.RunLua(0, code, nil)
	if err != nil {
		return fmt.Errorf("run lua: %w", err)
	}
	r.sched.Submit(r.expander.Expand(actions, nil))
	return nil
}

// RunSequence collects the actions of sequence id and schedules them.
// Exceeding the call depth is reported to the user and is not an error.
func (r *Runner) RunSequence(id int, vars []motion.ParameterApplication) error {
	actions, err := r.CollectSequenceActions(0, id, vars)
	if err != nil && !errors.Is(err, scripting.ErrMaxCallDepth) {
		return fmt.Errorf("run sequence %d: %w", id, err)
	}
	r.sched.Submit(r.expander.Expand(actions, vars))
	return nil
}

// Preview expands sequence id without moving the cursor and without
// scheduling anything.
func (r *Runner) Preview(id int, vars []motion.ParameterApplication) ([]action.Action, error) {
	cursor := r.expander.Cursor()
	stashed := cursor.Position()
	defer cursor.Set(stashed)

	actions, err := r.CollectSequenceActions(0, id, vars)
	if err != nil && !errors.Is(err, scripting.ErrMaxCallDepth) {
		return nil, fmt.Errorf("preview sequence %d: %w", id, err)
	}
	return r.expander.Expand(actions, vars), nil
}

// CollectSequenceActions returns the unexpanded actions of sequence id,
// following execute steps into other sequences. Past the maximum call depth
// the remaining work is abandoned: the actions collected so far are
// returned, followed by one error message, together with
// scripting.ErrMaxCallDepth.
func (r *Runner) CollectSequenceActions(depth, id int, bodyVars []motion.ParameterApplication) ([]action.Action, error) {
	c := &collector{Runner: r}
	err := c.collect(depth, id, bodyVars)
	if errors.Is(err, scripting.ErrMaxCallDepth) {
		r.log.Error("sequence call depth exceeded", zap.Int("sequence", id))
		c.emit(errorMessage(r.tr.T(locale.DepthExceeded)))
	}
	return c.actions, err
}

type collector struct {
	*Runner
	actions []action.Action
}

func (c *collector) emit(actions ...action.Action) {
	c.actions = append(c.actions, actions...)
}

func (c *collector) collect(depth, id int, bodyVars []motion.ParameterApplication) error {
	c.log.Debug("collect sequence", zap.Int("sequence", id), zap.Int("depth", depth))
	if depth > scripting.MaxCallDepth {
		return scripting.ErrMaxCallDepth
	}
	seq, err := c.res.Sequence(id)
	if err != nil {
		return err
	}
	vars := mergeVariables(seq.Variables, bodyVars)

	if len(vars) > 0 && vars[0].DataValue.Kind == motion.ValuePointGroup {
		return c.eachGroupPoint(depth, seq.ID, vars[0])
	}

	for _, step := range seq.Body {
		if err := c.step(depth, step, vars); err != nil {
			return err
		}
	}
	return nil
}

// eachGroupPoint runs the sequence once per point of the group bound to v,
// with v rebound to that point. Each iteration is expanded as it is
// collected so the cursor follows the loop.
func (c *collector) eachGroupPoint(depth, seqID int, v motion.ParameterApplication) error {
	points, err := c.res.GroupPoints(v.DataValue.Args.PointGroupID)
	if err != nil {
		c.log.Warn("point group not found",
			zap.Int("group", v.DataValue.Args.PointGroupID), zap.Error(err))
		c.emit(errorMessage(fmt.Sprintf("Point group %d not found.", v.DataValue.Args.PointGroupID)))
		return nil
	}
	for _, p := range points {
		pointVars := []motion.ParameterApplication{motion.PointVariable(v.Label, p.PointerType, p.ID)}
		loop := &collector{Runner: c.Runner}
		err := loop.collect(depth+1, seqID, pointVars)
		c.emit(c.expander.Expand(loop.actions, pointVars)...)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *collector) step(depth int, step data.Node, vars []motion.ParameterApplication) error {
	if step.Kind == "execute" {
		id, _ := step.Arg("sequence_id").(int)
		if f, ok := step.Arg("sequence_id").(float64); ok {
			id = int(f)
		}
		sub, err := step.ParameterApplications()
		if err != nil {
			c.log.Warn("bad execute variables", zap.Int("sequence", id), zap.Error(err))
		}
		err = c.collect(depth+1, id, sub)
		if errors.Is(err, data.ErrNotFound) {
			c.log.Warn("executed sequence not found", zap.Int("sequence", id))
			c.emit(errorMessage(fmt.Sprintf("Sequence %d not found.", id)))
			return nil
		}
		return err
	}

	code := scripting.CsToLua(step, c.res)
	if step.Kind == "lua" {
		code, _ = step.Arg("lua").(string)
	}
	if code == "" {
		return nil
	}
	actions, err := c.engine.RunLua(depth, code, vars)
	c.emit(actions...)
	return err
}

// mergeVariables puts the sequence's declared variables that bodyVars does
// not override before bodyVars.
func mergeVariables(declared, bodyVars []motion.ParameterApplication) []motion.ParameterApplication {
	vars := make([]motion.ParameterApplication, 0, len(declared)+len(bodyVars))
	for _, d := range declared {
		if _, overridden := motion.Lookup(bodyVars, d.Label); !overridden {
			vars = append(vars, d)
		}
	}
	return append(vars, bodyVars...)
}

func errorMessage(text string) action.Action {
	return action.New(action.SendMessage, "error", text, "toast")
}
