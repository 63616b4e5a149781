package stravazip

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/paulmach/orb"
)

type gpxFile struct {
	XMLName xml.Name   `xml:"gpx"`
	Tracks  []gpxTrack `xml:"trk"`
	Routes  []gpxRoute `xml:"rte"`
}

type gpxTrack struct {
	Name     string       `xml:"name"`
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxRoute struct {
	Name   string     `xml:"name"`
	Points []gpxPoint `xml:"rtept"`
}

type gpxPoint struct {
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
}

// parseGPX returns the name and one line per track segment and route, in document order
func parseGPX(r io.Reader) (string, orb.MultiLineString, error) {
	var doc gpxFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return "", nil, fmt.Errorf("decode gpx: %w", err)
	}

	var name string
	var lines orb.MultiLineString
	for _, trk := range doc.Tracks {
		if name == "" {
			name = trk.Name
		}
		for _, seg := range trk.Segments {
			lines = appendLine(lines, seg.Points)
		}
	}
	for _, rte := range doc.Routes {
		if name == "" {
			name = rte.Name
		}
		lines = appendLine(lines, rte.Points)
	}
	return name, lines, nil
}

func appendLine(lines orb.MultiLineString, pts []gpxPoint) orb.MultiLineString {
	if len(pts) == 0 {
		return lines
	}
	ls := make(orb.LineString, 0, len(pts))
	for _, p := range pts {
		ls = append(ls, orb.Point{p.Lon, p.Lat})
	}
	return append(lines, ls)
}
