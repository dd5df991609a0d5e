package geo

// PointInPolygon reports whether the point lies inside ring using the even-odd
// rule. Points are [x, y] pairs; callers pass [lon, lat]. The ring may be open
// or closed and is assumed simple.
func PointInPolygon(p [2]float64, ring [][2]float64) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	for i := 0; i < len(ring); i++ {
		p0, p1 := ring[i], ring[(i+1)%len(ring)]
		if (p0[1] <= p[1] && p[1] < p1[1]) || (p1[1] <= p[1] && p[1] < p0[1]) {
			x := p0[0] + (p[1]-p0[1])*(p1[0]-p0[0])/(p1[1]-p0[1])
			if x > p[0] {
				inside = !inside
			}
		}
	}
	return inside
}
