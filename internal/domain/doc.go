// Package domain models USGS earthquake summary data and the map built from it.
//
// # Data Source
//
// Earthquakes come from the USGS real-time GeoJSON summary feeds, e.g.
// https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson.
// Each feed is a FeatureCollection refreshed by USGS every minute. The service
// reads it once per render pass and never writes back.
//
// # Feed Conventions
//
// Geometry:
//
//	A Point with three coordinates: [longitude, latitude, depth].
//	Depth is in kilometers below the surface and can be slightly negative
//	for events above the geoid (e.g. -1.2 for shallow volcanic events).
//
// Properties used:
//
//	place  free text, e.g. "10 km N of Testville, CA"
//	mag    magnitude on whichever scale the network reported (ml, md, mb, mww)
//	time   origin time in epoch milliseconds, UTC
//	url    event page on earthquake.usgs.gov
//
// Missing values:
//
//	mag may be null for very recent or reviewed-as-noise events. Null and
//	missing values decode to zero; no validation is performed.
//
// # Marker Styling
//
// Radius scales linearly with magnitude through [MarkerRadius]. Fill color is
// a six-bucket step over depth (see [Palette.MarkerColor]):
//
//	depth < 10 km   green
//	10 to 30 km     greenyellow
//	30 to 50 km     yellow
//	50 to 70 km     orange
//	70 to 90 km     orangered
//	90 km and below red
//
// Bucket bounds are inclusive below and exclusive above; the last bucket is
// open-ended. The legend renders the same buckets starting at -10 km.
package domain
