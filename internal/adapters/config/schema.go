package config

// Berthfile represents the structure of the berth.yaml configuration file.
// Every field is optional; unset fields keep their defaults.
type Berthfile struct {
	Version  string     `yaml:"version"`
	Host     string     `yaml:"host"`
	Port     int        `yaml:"port"`
	Manifest string     `yaml:"manifest"`
	Lock     string     `yaml:"lock"`
	StateDir string     `yaml:"stateDir"`
	Payload  PayloadDTO `yaml:"payload"`
	Native   []string   `yaml:"native"`
	Server   ServerDTO  `yaml:"server"`
	Index    IndexDTO   `yaml:"index"`
	Python   PythonDTO  `yaml:"python"`
	Metrics  MetricsDTO `yaml:"metrics"`
}

// PayloadDTO configures the application payload copied into the image.
type PayloadDTO struct {
	Dir    string   `yaml:"dir"`
	Ignore []string `yaml:"ignore"`
}

// ServerDTO configures the application server process.
type ServerDTO struct {
	Entrypoint   string `yaml:"entrypoint"`
	Command      string `yaml:"command"`
	ReadyTimeout string `yaml:"readyTimeout"`
}

// IndexDTO selects the package index.
type IndexDTO struct {
	URL     string `yaml:"url"`
	Path    string `yaml:"path"`
	Timeout string `yaml:"timeout"`
}

// PythonDTO describes the target interpreter.
type PythonDTO struct {
	Version    string `yaml:"version"`
	Platform   string `yaml:"platform"`
	Machine    string `yaml:"machine"`
	Executable string `yaml:"executable"`
}

// MetricsDTO configures the metrics textfile.
type MetricsDTO struct {
	Path string `yaml:"path"`
}
