package library

import (
	"os"
	"path/filepath"

	"hourtrim/logger"
	"hourtrim/model"
)

// listDirs returns the names of the subdirectories of dir in directory-listing
// order. Unreadable or missing directories yield an empty list.
func listDirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read directory", logger.String("dir", dir), logger.ErrorField(err))
		}
		return []string{}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

// BuildTree walks root four levels deep (city/station/recording/date). Only
// directories are listed; files at any level are skipped. The result is built
// fresh on every call and is never nil.
func BuildTree(root string) []model.City {
	cities := make([]model.City, 0)
	for _, city := range listDirs(root) {
		cityPath := filepath.Join(root, city)

		stations := make([]model.Station, 0)
		for _, station := range listDirs(cityPath) {
			stationPath := filepath.Join(cityPath, station)

			recordings := make([]model.Recording, 0)
			for _, recording := range listDirs(stationPath) {
				recordingPath := filepath.Join(stationPath, recording)

				dates := make([]model.DateEntry, 0)
				for _, date := range listDirs(recordingPath) {
					dates = append(dates, model.DateEntry{
						Name: date,
						Path: city + "/" + station + "/" + recording + "/" + date,
					})
				}
				recordings = append(recordings, model.Recording{Name: recording, Dates: dates})
			}
			stations = append(stations, model.Station{Name: station, Recordings: recordings})
		}
		cities = append(cities, model.City{Name: city, Stations: stations})
	}
	return cities
}
