package room

import "math/rand"

// screenSlots is the fixed pool of display positions, in allocation order.
var screenSlots = []string{"top-left", "top-right", "bottom-left", "bottom-right"}

// colorPalette is drawn from at random with no collision avoidance;
// repeats across participants are tolerated.
var colorPalette = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12",
	"#9b59b6", "#1abc9c", "#e67e22", "#34495e",
}

func validSlot(slot string) bool {
	for _, s := range screenSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// allocateSlot returns the requested slot if free, otherwise the first free
// slot in pool order. With the pool exhausted it falls back to the request
// and participants simply overlap on screen.
func allocateSlot(roster []Participant, requested string) string {
	if !validSlot(requested) {
		requested = screenSlots[0]
	}

	taken := make(map[string]bool, len(roster))
	for _, p := range roster {
		if p.Active {
			taken[p.ScreenSlot] = true
		}
	}

	if !taken[requested] {
		return requested
	}
	for _, s := range screenSlots {
		if !taken[s] {
			return s
		}
	}
	return requested
}

func pickColor() string {
	return colorPalette[rand.Intn(len(colorPalette))]
}
