package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/kmorrow/bikeweather/pkg/models"
)

// mapTemplate renders a standalone Leaflet page: circle markers at each
// start station, radius scaled by trip count. The dashboard embeds the
// file as-is.
var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var stations = {{.Stations}};
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLng}}], 12);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
	attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
var maxCount = stations.reduce(function (m, s) { return Math.max(m, s.trip_count); }, 1);
stations.forEach(function (s) {
	if (!s.lat || !s.lng) { return; }
	L.circleMarker([s.lat, s.lng], {
		radius: 4 + 16 * Math.sqrt(s.trip_count / maxCount),
		color: '#00b4d8',
		fillOpacity: 0.6
	}).bindPopup(s.station_name + ' (' + s.trip_count + ' trips)').addTo(map);
});
</script>
</body>
</html>
`))

type mapData struct {
	Title     string
	Stations  template.JS
	CenterLat float64
	CenterLng float64
}

// WriteStationMapHTML renders the station popularity view as an embeddable
// Leaflet map artifact. The view is centered on the mean of the station
// coordinates.
func WriteStationMapHTML(path, title string, stations []models.StationCount) error {
	if len(stations) == 0 {
		return fmt.Errorf("no stations to map")
	}

	var sumLat, sumLng float64
	located := 0
	for _, s := range stations {
		if s.Lat != 0 || s.Lng != 0 {
			sumLat += s.Lat
			sumLng += s.Lng
			located++
		}
	}
	if located == 0 {
		return fmt.Errorf("no stations carry coordinates")
	}

	payload, err := json.Marshal(stations)
	if err != nil {
		return fmt.Errorf("encoding stations: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	data := mapData{
		Title:     title,
		Stations:  template.JS(payload),
		CenterLat: sumLat / float64(located),
		CenterLng: sumLng / float64(located),
	}

	if err := mapTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("rendering map: %w", err)
	}

	return nil
}
