package netshield

import "hash/fnv"

// referenceCities is the fixed placement table. Order matters: the index for
// an address is a stable function of its hash, so reordering entries would
// move every previously plotted point.
var referenceCities = []struct {
	name string
	lat  float64
	lng  float64
}{
	{"London", 51.5074, -0.1278},
	{"New York", 40.7128, -74.0060},
	{"Tokyo", 35.6762, 139.6503},
	{"Singapore", 1.3521, 103.8198},
	{"Frankfurt", 50.1109, 8.6821},
	{"Sydney", -33.8688, 151.2093},
	{"Bengaluru", 12.9716, 77.5946},
}

// Locate maps an address string to one of the reference cities. This is a
// deterministic placeholder for map rendering, not a geolocation service:
// the same address always lands on the same city, and the city has no
// relation to where the address actually is.
func Locate(address string) GeoPoint {
	h := fnv.New32a()
	h.Write([]byte(address))

	v := int64(int32(h.Sum32()))
	if v < 0 {
		v = -v
	}

	city := referenceCities[v%int64(len(referenceCities))]
	return GeoPoint{
		IP:   address,
		City: city.name,
		Lat:  city.lat,
		Lng:  city.lng,
	}
}
