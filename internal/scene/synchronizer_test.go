package scene

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	next     Handle
	built    map[Handle]Object
	attached map[Handle]bool
	released map[Handle]int
	failIDs  map[string]bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		built:    map[Handle]Object{},
		attached: map[Handle]bool{},
		released: map[Handle]int{},
		failIDs:  map[string]bool{},
	}
}

func (e *fakeEngine) Build(obj Object) (Handle, error) {
	if e.failIDs[obj.ID] {
		return 0, errors.New("out of buffers")
	}
	e.next++
	e.built[e.next] = obj
	return e.next, nil
}

func (e *fakeEngine) Attach(h Handle) { e.attached[h] = true }
func (e *fakeEngine) Detach(h Handle) { delete(e.attached, h) }
func (e *fakeEngine) Release(h Handle) {
	e.released[h]++
}

func (e *fakeEngine) attachedIDs() []string {
	ids := []string{}
	for h := range e.attached {
		ids = append(ids, e.built[h].ID)
	}
	sort.Strings(ids)
	return ids
}

func (e *fakeEngine) handleFor(id string) Handle {
	for h, obj := range e.built {
		if obj.ID == id {
			return h
		}
	}
	return 0
}

func box(id string, x float64) Descriptor {
	return Descriptor{
		ID:         id,
		Kind:       "Box",
		Parameters: map[string]any{"xsize": 2.0, "ysize": 1.0, "zsize": 0.5},
		Placement:  Placement{Position: Vec3{x, 0, 0}},
	}
}

func sphere(id string, r float64) Descriptor {
	return Descriptor{
		ID:         id,
		Kind:       "Sphere",
		Parameters: map[string]any{"radius": r},
		Placement:  Placement{Position: Vec3{3, 0, 0}},
	}
}

func TestReconcileIncrementalIsIdempotent(t *testing.T) {
	engine := newFakeEngine()
	syncer := NewSynchronizer(engine, nil)
	descs := []Descriptor{box("a", 0)}

	first := syncer.ReconcileIncremental(descs)
	second := syncer.ReconcileIncremental(descs)

	assert.Equal(t, []string{"a"}, first.Added)
	assert.Empty(t, second.Added)
	assert.Equal(t, []string{"a"}, second.Skipped)
	assert.Equal(t, 1, syncer.Len())
	assert.Len(t, engine.built, 1, "expected a single render handle")
	assert.Equal(t, []string{"a"}, engine.attachedIDs())
}

func TestReconcileIncrementalKeepsExisting(t *testing.T) {
	engine := newFakeEngine()
	syncer := NewSynchronizer(engine, nil)
	syncer.ReconcileIncremental([]Descriptor{box("a", 0)})
	report := syncer.ReconcileIncremental([]Descriptor{sphere("b", 1)})

	assert.Equal(t, []string{"b"}, report.Added)
	if diff := cmp.Diff([]string{"a", "b"}, syncer.IDs()); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}
}

func TestReconcileFullReplaceReleasesPreviousHandles(t *testing.T) {
	engine := newFakeEngine()
	syncer := NewSynchronizer(engine, nil)

	syncer.ReconcileFullReplace([]Descriptor{box("a", 0)})
	handleA := engine.handleFor("a")
	require.NotZero(t, handleA)

	report := syncer.ReconcileFullReplace([]Descriptor{sphere("b", 0.5)})

	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, []string{"b"}, syncer.IDs())
	assert.Equal(t, []string{"b"}, engine.attachedIDs())
	assert.Equal(t, 1, engine.released[handleA], "handle for a must be released exactly once")
	_, ok := syncer.Get("a")
	assert.False(t, ok)
}

func TestReconcileFullReplaceProperty(t *testing.T) {
	batches := [][]Descriptor{
		{box("a", 0), box("b", 1)},
		{box("b", 1), sphere("c", 2)},
		{},
		{sphere("d", 1), sphere("d", 1), box("e", 4)},
	}
	for i := 0; i+1 < len(batches); i++ {
		engine := newFakeEngine()
		syncer := NewSynchronizer(engine, nil)
		syncer.ReconcileFullReplace(batches[i])
		var firstHandles []Handle
		for h := range engine.built {
			firstHandles = append(firstHandles, h)
		}
		syncer.ReconcileFullReplace(batches[i+1])

		want := map[string]bool{}
		for _, d := range batches[i+1] {
			want[d.ID] = true
		}
		wantIDs := make([]string, 0, len(want))
		for id := range want {
			wantIDs = append(wantIDs, id)
		}
		sort.Strings(wantIDs)
		if diff := cmp.Diff(wantIDs, syncer.IDs()); diff != "" {
			t.Fatalf("batch %d: ids (-want +got):\n%s", i, diff)
		}
		for _, h := range firstHandles {
			assert.Equal(t, 1, engine.released[h], "batch %d: handle %d", i, h)
		}
	}
}

func TestReconcileSkipsUnknownKind(t *testing.T) {
	engine := newFakeEngine()
	syncer := NewSynchronizer(engine, nil)
	descs := []Descriptor{
		box("a", 0),
		{ID: "x", Kind: "UnknownType", Parameters: map[string]any{}},
		sphere("b", 1),
	}

	var report Report
	require.NotPanics(t, func() { report = syncer.ReconcileIncremental(descs) })

	assert.Equal(t, []string{"a", "b"}, report.Added)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "x", report.Rejected[0].ID)
	assert.ErrorIs(t, report.Rejected[0].Err, ErrUnknownKind)
	assert.Len(t, report.Notes(), 1)
	assert.Contains(t, report.Notes()[0], "skipped x")
}

func TestReconcileSkipsMalformedDescriptor(t *testing.T) {
	engine := newFakeEngine()
	syncer := NewSynchronizer(engine, nil)
	report := syncer.ReconcileIncremental([]Descriptor{
		{ID: "bad-box", Kind: "Box", Parameters: map[string]any{"xsize": 1.0}},
		{ID: "neg", Kind: "Sphere", Parameters: map[string]any{"radius": -1.0}},
		{Kind: "Point"},
		box("ok", 0),
	})

	assert.Equal(t, []string{"ok"}, report.Added)
	require.Len(t, report.Rejected, 3)
	assert.ErrorIs(t, report.Rejected[0].Err, ErrMissingParameter)
	assert.ErrorIs(t, report.Rejected[1].Err, ErrInvalidParameter)
	assert.ErrorIs(t, report.Rejected[2].Err, ErrMissingID)
}

func TestReconcileEngineFailureIsRejected(t *testing.T) {
	engine := newFakeEngine()
	engine.failIDs["a"] = true
	syncer := NewSynchronizer(engine, nil)

	report := syncer.ReconcileIncremental([]Descriptor{box("a", 0), box("b", 1)})

	assert.Equal(t, []string{"b"}, report.Added)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "a", report.Rejected[0].ID)
}

func TestRemoveAndTeardownRelease(t *testing.T) {
	engine := newFakeEngine()
	syncer := NewSynchronizer(engine, nil)
	syncer.ReconcileIncremental([]Descriptor{box("a", 0), box("b", 1), sphere("c", 1)})

	assert.True(t, syncer.Remove("b"))
	assert.False(t, syncer.Remove("b"))
	assert.Equal(t, 1, engine.released[engine.handleFor("b")])

	assert.Equal(t, 2, syncer.Teardown())
	assert.Zero(t, syncer.Len())
	assert.Empty(t, engine.attached)
	for h := range engine.built {
		assert.Equal(t, 1, engine.released[h])
	}
}

func TestBuildGeometry(t *testing.T) {
	obj, err := Build(box("a", 3))
	require.NoError(t, err)
	assert.Equal(t, Box{XSize: 2, YSize: 1, ZSize: 0.5}, obj.Geometry)
	assert.Equal(t, Vec3{3, 0, 0}, obj.Placement.Position)

	obj, err = Build(Descriptor{ID: "p", Kind: "compas.geometry/Point", Placement: Placement{Position: Vec3{0, 2, 0}}})
	require.NoError(t, err)
	assert.Equal(t, KindPoint, obj.Kind())

	obj, err = Build(Descriptor{
		ID:         "cyl",
		Kind:       "cylinder",
		Parameters: map[string]any{"radius": 1, "height": 4.0},
	})
	require.NoError(t, err)
	assert.Equal(t, Cylinder{Radius: 1, Height: 4}, obj.Geometry)

	obj, err = Build(Descriptor{
		ID:   "m",
		Kind: "Mesh",
		Parameters: map[string]any{
			"vertices": []any{[]any{0.0, 0.0, 0.0}, []any{1.0, 0.0, 0.0}, []any{0.0, 1.0, 0.0}},
			"faces":    []any{[]any{0.0, 1.0, 2.0}},
		},
	})
	require.NoError(t, err)
	mesh, ok := obj.Geometry.(Mesh)
	require.True(t, ok)
	assert.Len(t, mesh.Vertices, 3)
	assert.Equal(t, [][]int{{0, 1, 2}}, mesh.Faces)

	_, err = Build(Descriptor{
		ID:   "m2",
		Kind: "Mesh",
		Parameters: map[string]any{
			"vertices": []any{[]any{0.0, 0.0, 0.0}},
			"faces":    []any{[]any{0.0, 1.0, 7.0}},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"Box":                        KindBox,
		"compas.geometry/Sphere":     KindSphere,
		"compas.datastructures/Mesh": KindMesh,
		" point ":                    KindPoint,
		"Cylinder":                   KindCylinder,
		"Frame":                      KindUnknown,
		"":                           KindUnknown,
	}
	for raw, want := range tests {
		assert.Equal(t, want, ParseKind(raw), raw)
	}
}
