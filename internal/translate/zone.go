package translate

import (
	"math"
	"strings"

	"github.com/soar/padmapper/internal/output"
)

// Directions is the WASD key set produced from one left-stick sample.
type Directions struct {
	W bool `json:"w"`
	A bool `json:"a"`
	S bool `json:"s"`
	D bool `json:"d"`
}

// Any reports whether at least one direction is set.
func (d Directions) Any() bool {
	return d.W || d.A || d.S || d.D
}

func (d Directions) String() string {
	var b strings.Builder
	for _, k := range d.keys() {
		if k.on {
			b.WriteString(k.key.String())
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

type directionKey struct {
	key output.Key
	on  bool
}

func (d Directions) keys() [4]directionKey {
	return [4]directionKey{
		{output.KeyW, d.W},
		{output.KeyA, d.A},
		{output.KeyS, d.S},
		{output.KeyD, d.D},
	}
}

// Classify maps a left-stick sample to WASD. Inside the dead zone nothing is
// pressed. Outside it the stick angle selects one of four octant pairs with
// exclusive bounds, then narrow diagonal bands add the neighbouring key.
//
// zone.DiagonalZoneSize is not consulted; the diagonal bands are fixed at
// 30 degrees on the inner side of each 45 degree seam.
func Classify(x, y float64, zone ZoneConfig) Directions {
	var d Directions
	if math.Sqrt(x*x+y*y) < zone.DeadZoneRadius {
		return d
	}

	deg := math.Atan2(y, x) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}

	switch {
	case deg > 45 && deg < 135:
		d.W = true
	case deg > 225 && deg < 315:
		d.S = true
	case deg > 135 && deg < 225:
		d.A = true
	// Unlike the 45, 135 and 225 seams, exactly 315 is inclusive and maps to D.
	case deg < 45 || deg >= 315:
		d.D = true
	}

	switch {
	case deg > 45 && deg < 75:
		d.W, d.D = true, true
	case deg > 105 && deg < 135:
		d.W, d.A = true, true
	case deg > 225 && deg < 255:
		d.S, d.A = true, true
	case deg > 285 && deg < 315:
		d.S, d.D = true, true
	}
	return d
}
