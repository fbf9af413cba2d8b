package disruption

import (
	"github.com/dhconnelly/rtreego"

	"github.com/example/carpool-matching/internal/geo"
	"github.com/example/carpool-matching/internal/models"
)

// queryTolerance pads point queries so that points on a zone's bounding
// box edge still intersect it. Coverage itself is decided exactly.
const queryTolerance = 1e-6

// zoneEntry wraps a zone so it satisfies rtreego.Spatial.
type zoneEntry struct {
	seq  int
	zone models.DisruptionZone
	box  rtreego.Rect
}

func (e *zoneEntry) Bounds() rtreego.Rect { return e.box }

// Index answers "which zone covers this point" over a fixed zone list.
// When several zones cover a point, the one latest in the list wins.
type Index struct {
	tree  *rtreego.Rtree
	zones int
}

// NewIndex builds an index over zones. Zones without a positive radius
// cannot cover anything and are skipped.
func NewIndex(zones []models.DisruptionZone) *Index {
	ix := &Index{tree: rtreego.NewTree(2, 25, 50)}
	for i, z := range zones {
		if !(z.Radius > 0) {
			continue
		}
		corner := rtreego.Point{z.Center.X - z.Radius, z.Center.Y - z.Radius}
		box, err := rtreego.NewRect(corner, []float64{2 * z.Radius, 2 * z.Radius})
		if err != nil {
			continue
		}
		ix.tree.Insert(&zoneEntry{seq: i, zone: z, box: box})
		ix.zones++
	}
	return ix
}

func (ix *Index) Len() int { return ix.zones }

// Covering returns the last zone, in original order, that covers p.
func (ix *Index) Covering(p geo.Point) (models.DisruptionZone, bool) {
	if ix.zones == 0 {
		return models.DisruptionZone{}, false
	}
	hits := ix.tree.SearchIntersect(rtreego.Point{p.X, p.Y}.ToRect(queryTolerance))
	best := -1
	var zone models.DisruptionZone
	for _, h := range hits {
		e := h.(*zoneEntry)
		if e.seq > best && e.zone.Covers(p) {
			best = e.seq
			zone = e.zone
		}
	}
	return zone, best >= 0
}
