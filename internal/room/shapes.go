package room

// Shape is a drawable primitive in a room's collection. Optional style
// fields are pointers so a partial update can tell "absent" from "zero".
type Shape struct {
	ID          string   `json:"id"`
	ShapeType   string   `json:"shapeType,omitempty"` // line, rectangle, ellipse, path, text, image
	Points      []Point  `json:"points,omitempty"`
	StrokeColor string   `json:"strokeColor,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Fill        string   `json:"fill,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
	FontSize    *float64 `json:"fontSize,omitempty"`
	Text        *string  `json:"text,omitempty"`
}

// merge copies the fields present in patch onto s.
func (s *Shape) merge(patch Shape) {
	if patch.ShapeType != "" {
		s.ShapeType = patch.ShapeType
	}
	if patch.Points != nil {
		s.Points = patch.Points
	}
	if patch.StrokeColor != "" {
		s.StrokeColor = patch.StrokeColor
	}
	if patch.StrokeWidth != nil {
		s.StrokeWidth = patch.StrokeWidth
	}
	if patch.Fill != "" {
		s.Fill = patch.Fill
	}
	if patch.Opacity != nil {
		s.Opacity = patch.Opacity
	}
	if patch.FontSize != nil {
		s.FontSize = patch.FontSize
	}
	if patch.Text != nil {
		s.Text = patch.Text
	}
}

// AddShape appends a shape to the room's insertion-ordered collection.
// A shape whose id is already present replaces the stored copy in place.
func (s *Store) AddShape(roomID string, shape Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return
	}
	for i := range r.shapes {
		if r.shapes[i].ID == shape.ID {
			r.shapes[i] = shape
			return
		}
	}
	r.shapes = append(r.shapes, shape)
}

// UpdateShape merges the patch into the stored shape. Unknown ids are a
// no-op, not an error: the shape may have been deleted concurrently.
func (s *Store) UpdateShape(roomID string, patch Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return
	}
	for i := range r.shapes {
		if r.shapes[i].ID == patch.ID {
			r.shapes[i].merge(patch)
			return
		}
	}
}

// DeleteShapes removes the listed ids, silently skipping absent ones.
func (s *Store) DeleteShapes(roomID string, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok || len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.shapes[:0]
	for _, sh := range r.shapes {
		if !drop[sh.ID] {
			kept = append(kept, sh)
		}
	}
	r.shapes = kept
}

// Shapes returns the room's full collection for sync requests.
func (s *Store) Shapes(roomID string) []Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]Shape, len(r.shapes))
	copy(out, r.shapes)
	return out
}
