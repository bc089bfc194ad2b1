package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoomWithStore(t *testing.T) (*Store, string) {
	t.Helper()
	s := NewStore()
	info, err := s.CreateRoom("board", Public, 4, "a")
	require.NoError(t, err)
	return s, info.ID
}

func fptr(v float64) *float64 { return &v }

func TestAddShapeKeepsInsertionOrder(t *testing.T) {
	s, id := newRoomWithStore(t)

	s.AddShape(id, Shape{ID: "s1", ShapeType: "rectangle", Points: []Point{{0, 0}, {10, 10}}})
	s.AddShape(id, Shape{ID: "s2", ShapeType: "ellipse"})

	shapes := s.Shapes(id)
	require.Len(t, shapes, 2)
	assert.Equal(t, "s1", shapes[0].ID)
	assert.Equal(t, "s2", shapes[1].ID)
}

func TestAddShapeSameIDReplaces(t *testing.T) {
	s, id := newRoomWithStore(t)

	s.AddShape(id, Shape{ID: "s1", ShapeType: "rectangle"})
	s.AddShape(id, Shape{ID: "s1", ShapeType: "ellipse"})

	shapes := s.Shapes(id)
	require.Len(t, shapes, 1)
	assert.Equal(t, "ellipse", shapes[0].ShapeType)
}

func TestUpdateShapeMergesPartialFields(t *testing.T) {
	s, id := newRoomWithStore(t)
	s.AddShape(id, Shape{
		ID:          "s1",
		ShapeType:   "rectangle",
		StrokeColor: "#000000",
		StrokeWidth: fptr(2),
	})

	s.UpdateShape(id, Shape{ID: "s1", StrokeColor: "#ff0000"})

	shapes := s.Shapes(id)
	require.Len(t, shapes, 1)
	assert.Equal(t, "#ff0000", shapes[0].StrokeColor)
	assert.Equal(t, "rectangle", shapes[0].ShapeType, "untouched fields survive the merge")
	require.NotNil(t, shapes[0].StrokeWidth)
	assert.Equal(t, 2.0, *shapes[0].StrokeWidth)
}

func TestUpdateShapeUnknownIDIsNoop(t *testing.T) {
	s, id := newRoomWithStore(t)
	s.AddShape(id, Shape{ID: "s1"})

	s.UpdateShape(id, Shape{ID: "ghost", StrokeColor: "#ff0000"})

	shapes := s.Shapes(id)
	require.Len(t, shapes, 1)
	assert.Empty(t, shapes[0].StrokeColor)
}

func TestDeleteShapesSkipsAbsentIDs(t *testing.T) {
	s, id := newRoomWithStore(t)
	s.AddShape(id, Shape{ID: "s1"})
	s.AddShape(id, Shape{ID: "s2"})

	s.DeleteShapes(id, []string{"s2", "ghost"})

	shapes := s.Shapes(id)
	require.Len(t, shapes, 1)
	assert.Equal(t, "s1", shapes[0].ID)

	// Entirely absent ids leave the collection untouched.
	s.DeleteShapes(id, []string{"ghost"})
	assert.Len(t, s.Shapes(id), 1)
}

func TestShapesUnknownRoom(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Shapes("nope"))
	// Mutations against unknown rooms are no-ops, not panics.
	s.AddShape("nope", Shape{ID: "s1"})
	s.UpdateShape("nope", Shape{ID: "s1"})
	s.DeleteShapes("nope", []string{"s1"})
}
