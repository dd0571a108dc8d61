package model

// City is the top level of the city/station/recording/date hierarchy.
type City struct {
	Name     string    `json:"name"`
	Stations []Station `json:"stations"`
}

type Station struct {
	Name       string      `json:"name"`
	Recordings []Recording `json:"recordings"`
}

type Recording struct {
	Name  string      `json:"name"`
	Dates []DateEntry `json:"dates"`
}

// DateEntry is a leaf. Path is "<city>/<station>/<recording>/<date>" with
// forward slashes regardless of OS, ready to be sent back as relative_path.
type DateEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
