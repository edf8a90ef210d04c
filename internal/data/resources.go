// Package data holds the garden resources a demo run can refer to.
package data

import (
	"errors"
	"fmt"
	"os"

	"github.com/farmdemo/server/internal/motion"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a resource id does not resolve.
var ErrNotFound = errors.New("resource not found")

// Tool is a mountable tool.
type Tool struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// ToolSlot is a slot in the garden that may hold a tool.
type ToolSlot struct {
	ID     int     `yaml:"id"`
	ToolID int     `yaml:"tool_id"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Z      float64 `yaml:"z"`
}

// Point is a garden point (plant, weed, generic marker). The JSON form is
// the create_point payload.
type Point struct {
	ID          int               `json:"id,omitempty" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	PointerType string            `json:"pointer_type" yaml:"pointer_type"`
	X           float64           `json:"x" yaml:"x"`
	Y           float64           `json:"y" yaml:"y"`
	Z           float64           `json:"z" yaml:"z"`
	Meta        map[string]string `json:"meta" yaml:"meta"`
	Radius      float64           `json:"radius" yaml:"radius"`
	PlantStage  string            `json:"plant_stage,omitempty" yaml:"plant_stage"`
}

// Position returns the point location.
func (p Point) Position() motion.Xyz {
	return motion.Xyz{X: p.X, Y: p.Y, Z: p.Z}
}

// Peripheral names a pin.
type Peripheral struct {
	ID    int    `yaml:"id"`
	Label string `yaml:"label"`
	Pin   int    `yaml:"pin"`
}

// PointGroup is an ordered selection of points.
type PointGroup struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	SortType string `yaml:"sort_type"`
	PointIDs []int  `yaml:"point_ids"`
}

// Sequence is a stored program: declared variables plus a body of steps.
type Sequence struct {
	ID        int                           `yaml:"id"`
	Name      string                        `yaml:"name"`
	Variables []motion.ParameterApplication `yaml:"variables"`
	Body      []Node                        `yaml:"body"`
}

type resourcesFile struct {
	Tools       []Tool       `yaml:"tools"`
	ToolSlots   []ToolSlot   `yaml:"tool_slots"`
	Points      []Point      `yaml:"points"`
	Peripherals []Peripheral `yaml:"peripherals"`
	PointGroups []PointGroup `yaml:"point_groups"`
	Sequences   []Sequence   `yaml:"sequences"`
}

// Resources indexes every resource the demo interpreter can refer to.
type Resources struct {
	tools       map[int]*Tool
	slots       []*ToolSlot
	points      []*Point
	pointByID   map[int]*Point
	peripherals map[int]*Peripheral
	groups      map[int]*PointGroup
	sequences   map[int]*Sequence
	nextPointID int
}

// NewResources returns an empty index.
func NewResources() *Resources {
	return &Resources{
		tools:       make(map[int]*Tool),
		pointByID:   make(map[int]*Point),
		peripherals: make(map[int]*Peripheral),
		groups:      make(map[int]*PointGroup),
		sequences:   make(map[int]*Sequence),
		nextPointID: 1,
	}
}

// LoadResources loads the resource YAML file.
func LoadResources(path string) (*Resources, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resources: %w", err)
	}
	return ParseResources(raw)
}

// ParseResources builds an index from resource YAML.
func ParseResources(raw []byte) (*Resources, error) {
	var f resourcesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse resources: %w", err)
	}
	r := NewResources()
	for i := range f.Tools {
		r.tools[f.Tools[i].ID] = &f.Tools[i]
	}
	for i := range f.ToolSlots {
		r.slots = append(r.slots, &f.ToolSlots[i])
	}
	for i := range f.Points {
		r.AddPoint(f.Points[i])
	}
	for i := range f.Peripherals {
		r.peripherals[f.Peripherals[i].ID] = &f.Peripherals[i]
	}
	for i := range f.PointGroups {
		r.groups[f.PointGroups[i].ID] = &f.PointGroups[i]
	}
	for i := range f.Sequences {
		r.sequences[f.Sequences[i].ID] = &f.Sequences[i]
	}
	return r, nil
}

// AddPoint stores p, assigning the next free id when p has none, and
// returns the stored copy.
func (r *Resources) AddPoint(p Point) Point {
	if p.Meta == nil {
		p.Meta = map[string]string{}
	}
	if p.ID == 0 {
		for r.pointByID[r.nextPointID] != nil {
			r.nextPointID++
		}
		p.ID = r.nextPointID
	}
	if p.ID >= r.nextPointID {
		r.nextPointID = p.ID + 1
	}
	stored := &p
	if old := r.pointByID[p.ID]; old != nil {
		*old = p
		return p
	}
	r.points = append(r.points, stored)
	r.pointByID[p.ID] = stored
	return p
}

// Point returns the point with id.
func (r *Resources) Point(id int) (Point, bool) {
	p := r.pointByID[id]
	if p == nil {
		return Point{}, false
	}
	return *p, true
}

// Points returns every point in load order.
func (r *Resources) Points() []Point {
	out := make([]Point, len(r.points))
	for i, p := range r.points {
		out[i] = *p
	}
	return out
}

// SoilHeightPoints returns the points marked as measured at soil level.
func (r *Resources) SoilHeightPoints() []Point {
	var out []Point
	for _, p := range r.points {
		if p.Meta["at_soil_level"] == "true" {
			out = append(out, *p)
		}
	}
	return out
}

// ToolSlot returns the slot currently holding toolID.
func (r *Resources) ToolSlot(toolID int) (ToolSlot, bool) {
	for _, s := range r.slots {
		if s.ToolID == toolID {
			return *s, true
		}
	}
	return ToolSlot{}, false
}

// Tool returns the tool with id.
func (r *Resources) Tool(id int) (Tool, bool) {
	t := r.tools[id]
	if t == nil {
		return Tool{}, false
	}
	return *t, true
}

// Peripheral returns the peripheral with id.
func (r *Resources) Peripheral(id int) (Peripheral, bool) {
	p := r.peripherals[id]
	if p == nil {
		return Peripheral{}, false
	}
	return *p, true
}

// Sequence returns the sequence with id.
func (r *Resources) Sequence(id int) (*Sequence, error) {
	s := r.sequences[id]
	if s == nil {
		return nil, fmt.Errorf("sequence %d: %w", id, ErrNotFound)
	}
	return s, nil
}

// PointGroup returns the group with id.
func (r *Resources) PointGroup(id int) (*PointGroup, error) {
	g := r.groups[id]
	if g == nil {
		return nil, fmt.Errorf("point group %d: %w", id, ErrNotFound)
	}
	return g, nil
}

// Count returns the number of indexed resources.
func (r *Resources) Count() int {
	return len(r.tools) + len(r.slots) + len(r.points) + len(r.peripherals) +
		len(r.groups) + len(r.sequences)
}
