package world

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/graph"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/pose"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/skinning"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/task"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

// CharacterID identifies a character within its world.
type CharacterID uint64

// Character is one animated skeleton instance: a graph evaluated by its own task system,
// and the skinning palette computed from the resulting pose.
type Character interface {
	// ID returns the character's identifier.
	ID() CharacterID

	// Name returns the character's name.
	Name() string

	// Skeleton returns the character's skeleton.
	Skeleton() *model.Skeleton

	// Graph returns the graph evaluated every frame.
	Graph() graph.Graph

	// Tasks returns the character's task system.
	Tasks() task.TaskSystem

	// Pose returns the pose produced by the last update.
	Pose() *pose.Pose

	// Skinning returns the skinning palette computed by the last update.
	Skinning() skinning.SkinningBuffer

	// Frames returns the number of updates the character went through.
	Frames() uint64

	// PaletteBuffer returns the GPU buffer the skinning palette is uploaded to, nil when the world
	// has no device or the character was removed.
	PaletteBuffer() *wgpu.Buffer
}

// character is the implementation of the Character interface.
type character struct {
	id       CharacterID
	name     string
	skeleton *model.Skeleton
	graph    graph.Graph
	tasks    task.TaskSystem
	skin     skinning.SkinningBuffer
	palette  *wgpu.Buffer
	frames   uint64
}

var _ Character = &character{}

func (c *character) ID() CharacterID                   { return c.id }
func (c *character) Name() string                      { return c.name }
func (c *character) Skeleton() *model.Skeleton         { return c.skeleton }
func (c *character) Graph() graph.Graph                { return c.graph }
func (c *character) Tasks() task.TaskSystem            { return c.tasks }
func (c *character) Pose() *pose.Pose                  { return c.tasks.Pose() }
func (c *character) Skinning() skinning.SkinningBuffer { return c.skin }
func (c *character) Frames() uint64                    { return c.frames }
func (c *character) PaletteBuffer() *wgpu.Buffer       { return c.palette }

// update evaluates the graph and refreshes the skinning palette.
func (c *character) update(deltaTime float32) {
	c.graph.Evaluate(c.tasks, deltaTime)
	c.skin.Update(c.tasks.Pose())
	c.frames++
}
