package ruleset

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/kass/geowithin/pkg/geodist"
	"github.com/kass/geowithin/pkg/models"
)

const (
	minChildren = 25
	maxChildren = 50
	dimensions  = 2

	// pad widens every indexed box so rounding never excludes a true match.
	pad       = 1e-6
	tolerance = 1e-9
)

var globe = models.BoundingBox{
	BottomLeft: models.Coordinate{Lat: -90, Lon: -180},
	TopRight:   models.Coordinate{Lat: 90, Lon: 180},
}

// spatialRule wraps a rule position to implement rtreego.Spatial
type spatialRule struct {
	pos  int
	box  models.BoundingBox
	rect *rtreego.Rect
}

func (sr *spatialRule) Bounds() *rtreego.Rect {
	return sr.rect
}

// discIndex holds the bounding boxes of Within rule discs.
type discIndex struct {
	tree *rtreego.Rtree
}

func newDiscIndex() *discIndex {
	return &discIndex{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
}

// insert indexes the disc of radius thresholdKm around reference.
// Discs that can match nothing are skipped and reported false.
func (d *discIndex) insert(pos int, thresholdKm float64, reference models.Coordinate) (bool, error) {
	box, ok := discBounds(thresholdKm, reference)
	if !ok {
		return false, nil
	}

	box.BottomLeft.Lat -= pad
	box.BottomLeft.Lon -= pad
	box.TopRight.Lat += pad
	box.TopRight.Lon += pad

	rect, err := rtreego.NewRect(
		rtreego.Point{box.BottomLeft.Lat, box.BottomLeft.Lon},
		[]float64{
			box.TopRight.Lat - box.BottomLeft.Lat,
			box.TopRight.Lon - box.BottomLeft.Lon,
		},
	)
	if err != nil {
		return false, err
	}

	d.tree.Insert(&spatialRule{pos: pos, box: box, rect: rect})
	return true, nil
}

// candidates returns the positions of discs whose box contains subject.
// ok is false when subject cannot be located in the index and every rule must be checked.
func (d *discIndex) candidates(subject models.Coordinate) (map[int]struct{}, bool) {
	if !onGlobe(subject.Lat) || !isFinite(subject.Lon) {
		return nil, false
	}

	query := models.Coordinate{Lat: subject.Lat, Lon: normalizeLon(subject.Lon)}
	q := rtreego.Point{query.Lat, query.Lon}
	results := d.tree.SearchIntersect(q.ToRect(tolerance))

	found := make(map[int]struct{}, len(results))
	for _, result := range results {
		item, ok := result.(*spatialRule)
		// Strict boundary check
		if !ok || !item.box.Contains(query) {
			continue
		}
		found[item.pos] = struct{}{}
	}
	return found, true
}

func (d *discIndex) size() int {
	return d.tree.Size()
}

// discBounds returns a lat/lon box containing every point closer than
// thresholdKm to reference. The box covers all longitudes when the disc
// reaches a pole or crosses the antimeridian.
func discBounds(thresholdKm float64, reference models.Coordinate) (models.BoundingBox, bool) {
	// Distance is never negative, and NaN never compares less.
	if !(thresholdKm > 0) || !isFinite(reference.Lat) || !isFinite(reference.Lon) {
		return models.BoundingBox{}, false
	}

	if !onGlobe(reference.Lat) {
		return globe, true
	}

	angular := thresholdKm / geodist.EarthRadiusKm
	if angular >= math.Pi {
		return globe, true
	}

	deltaLat := angular * 180 / math.Pi
	minLat := reference.Lat - deltaLat
	maxLat := reference.Lat + deltaLat
	if minLat <= -90 || maxLat >= 90 {
		return models.BoundingBox{
			BottomLeft: models.Coordinate{Lat: math.Max(minLat, -90), Lon: -180},
			TopRight:   models.Coordinate{Lat: math.Min(maxLat, 90), Lon: 180},
		}, true
	}

	deltaLon := math.Asin(math.Sin(angular)/math.Cos(reference.Lat*math.Pi/180)) * 180 / math.Pi
	lon := normalizeLon(reference.Lon)
	minLon := lon - deltaLon
	maxLon := lon + deltaLon
	if math.IsNaN(deltaLon) || minLon <= -180 || maxLon >= 180 {
		minLon, maxLon = -180, 180
	}

	return models.BoundingBox{
		BottomLeft: models.Coordinate{Lat: minLat, Lon: minLon},
		TopRight:   models.Coordinate{Lat: maxLat, Lon: maxLon},
	}, true
}

// normalizeLon maps any finite longitude onto [-180, 180].
func normalizeLon(lon float64) float64 {
	return math.Remainder(lon, 360)
}

func onGlobe(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
