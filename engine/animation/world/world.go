package world

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/graph"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/skinning"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/task"
	"github.com/Carmen-Shannon/oxy-anim/engine/config"
	"github.com/Carmen-Shannon/oxy-anim/engine/logger"
	"github.com/Carmen-Shannon/oxy-anim/engine/metrics"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/engine/tracing"
	"github.com/cogentcore/webgpu/wgpu"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// World owns a set of characters and updates them once per frame. Characters are evaluated in
// parallel on a worker pool; each character owns its task system and pose buffer pool, so no two
// workers ever share a pool.
// Thread-safe for concurrent access; Update holds the world exclusively while workers run.
type World interface {
	// AddCharacter creates a character evaluating the graph with a task system of its own.
	//
	// Parameters:
	//   - name: the character's name, used as its pool label
	//   - skeleton: the skeleton to animate
	//   - g: the graph to evaluate every frame
	//
	// Returns:
	//   - Character: the new character
	//   - error: an error if an argument is missing
	AddCharacter(name string, skeleton *model.Skeleton, g graph.Graph) (Character, error)

	// RemoveCharacter shuts down a character's graph, reclaims its pose buffers and GPU palette
	// and removes it from the world.
	//
	// Parameters:
	//   - id: the character to remove
	//
	// Returns:
	//   - error: an error if no character has the id
	RemoveCharacter(id CharacterID) error

	// Character returns the character with the given id.
	//
	// Parameters:
	//   - id: the character id
	//
	// Returns:
	//   - Character: the character, or nil
	//   - bool: whether the character exists
	Character(id CharacterID) (Character, bool)

	// Characters returns every character ordered by id.
	Characters() []Character

	// CharacterCount returns the number of characters.
	CharacterCount() int

	// Update advances every character by one frame. A contract violation raised while evaluating a
	// character is re-raised on the calling goroutine once all workers are done. When the world has
	// a GPU device every character's palette is uploaded after the workers finish.
	//
	// Parameters:
	//   - ctx: the frame context, checked for cancellation before any work is dispatched
	//   - deltaTime: the frame time step in seconds
	//
	// Returns:
	//   - error: the context error if ctx is done
	Update(ctx context.Context, deltaTime float32) error

	// FrameCount returns the number of completed updates.
	FrameCount() uint64

	// Shutdown removes every character.
	Shutdown()
}

// world is the implementation of the World interface.
type world struct {
	mu  *sync.RWMutex
	log *zap.Logger

	workers    int
	poolConfig config.PosePoolConfig
	profiler   *profiler.Profiler
	device     *wgpu.Device
	queue      *wgpu.Queue

	characters map[CharacterID]*character
	order      []*character
	nextID     CharacterID
	frames     uint64

	workerPool worker.DynamicWorkerPool
	panics     []any
}

var _ World = &world{}

// NewWorld creates an empty world.
//
// Parameters:
//   - options: functional options applied before the worker pool is created
//
// Returns:
//   - World: the new world
func NewWorld(options ...WorldBuilderOption) World {
	w := &world{
		mu:         &sync.RWMutex{},
		workers:    max(runtime.NumCPU()-1, 1),
		characters: make(map[CharacterID]*character),
		nextID:     1,
	}

	for _, option := range options {
		option(w)
	}

	if w.log == nil {
		w.log = logger.Named("world")
	}

	// Initialize the worker pool after options so WithWorkers can override the default.
	w.workerPool = worker.NewDynamicWorkerPool(w.workers, 256, 1*time.Second)
	if w.device != nil {
		w.queue = w.device.GetQueue()
	}
	return w
}

func (w *world) AddCharacter(name string, skeleton *model.Skeleton, g graph.Graph) (Character, error) {
	if name == "" {
		return nil, fmt.Errorf("world: character name is required")
	}
	if skeleton == nil {
		return nil, fmt.Errorf("world: character %q requires a skeleton", name)
	}
	if g == nil {
		return nil, fmt.Errorf("world: character %q requires a graph", name)
	}

	skin := skinning.NewSkinningBuffer(skeleton)
	var palette *wgpu.Buffer
	if w.device != nil {
		buf, err := skin.CreateBuffer(w.device, "palette "+name)
		if err != nil {
			return nil, fmt.Errorf("world: character %q: %w", name, err)
		}
		palette = buf
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	c := &character{
		id:       w.nextID,
		name:     name,
		skeleton: skeleton,
		graph:    g,
		tasks: task.NewTaskSystem(skeleton,
			task.WithTaskSystemLogger(w.log.With(zap.String("character", name))),
			task.WithPoolOptions(
				task.WithConfig(w.poolConfig),
				task.WithLabel(name),
			),
		),
		skin:    skin,
		palette: palette,
	}
	w.nextID++

	w.characters[c.id] = c
	w.order = append(w.order, c)
	metrics.WorldCharacters.Inc()

	w.log.Debug("character added", zap.Uint64("id", uint64(c.id)), zap.String("name", name), zap.Int("bones", skeleton.BoneCount()))
	return c, nil
}

func (w *world) RemoveCharacter(id CharacterID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.characters[id]
	if !ok {
		return fmt.Errorf("world: no character with id %d", id)
	}
	w.removeLocked(c)
	return nil
}

func (w *world) Character(id CharacterID) (Character, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	c, ok := w.characters[id]
	if !ok {
		return nil, false
	}
	return c, true
}

func (w *world) Characters() []Character {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]Character, len(w.order))
	for i, c := range w.order {
		out[i] = c
	}
	return out
}

func (w *world) CharacterCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.order)
}

func (w *world) Update(ctx context.Context, deltaTime float32) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("world: update cancelled: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	_, span := tracing.StartSpan(ctx, "world.Update")
	defer span.End()
	span.SetAttributes(
		attribute.Int("characters", len(w.order)),
		attribute.Int64("frame", int64(w.frames)),
	)

	start := time.Now()

	if cap(w.panics) < len(w.order) {
		w.panics = make([]any, len(w.order))
	}
	w.panics = w.panics[:len(w.order)]

	// A WaitGroup provides the per-frame barrier; workers are reused across frames.
	var wg sync.WaitGroup
	for i, c := range w.order {
		wg.Add(1)
		cCap := c
		idx := i
		w.workerPool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						w.panics[idx] = r
					}
				}()

				cCap.update(deltaTime)
				return nil, nil
			},
		})
	}
	wg.Wait()

	for i, r := range w.panics {
		if r == nil {
			continue
		}
		clear(w.panics)
		c := w.order[i]
		w.log.Error("character update failed", zap.Uint64("id", uint64(c.id)), zap.String("name", c.name), zap.Any("panic", r))
		span.SetStatus(codes.Error, fmt.Sprintf("character %q failed", c.name))
		panic(r)
	}

	if w.queue != nil {
		for _, c := range w.order {
			c.skin.Upload(w.queue, c.palette, 0)
		}
	}

	elapsed := time.Since(start)
	w.frames++
	metrics.WorldFrameDuration.Observe(elapsed.Seconds())
	if w.profiler != nil {
		w.profiler.Tick(elapsed)
	}
	return nil
}

func (w *world) FrameCount() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frames
}

func (w *world) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for len(w.order) > 0 {
		w.removeLocked(w.order[len(w.order)-1])
	}
}

// removeLocked shuts down a character's graph, releases what it owns and drops it.
// Callers must hold w.mu.
func (w *world) removeLocked(c *character) {
	c.graph.Shutdown(c.tasks)
	c.tasks.Close()
	if c.palette != nil {
		c.palette.Release()
		c.palette = nil
	}
	delete(w.characters, c.id)
	w.order = slices.DeleteFunc(w.order, func(o *character) bool { return o == c })
	metrics.WorldCharacters.Dec()
	w.log.Debug("character removed", zap.Uint64("id", uint64(c.id)), zap.String("name", c.name))
}
