package config

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ServicesDict is the on-disk service dictionary: port number to label,
// merged over the scanner's built-in table.
type ServicesDict struct {
	Services map[int]string `yaml:"services"`
}

var (
	servicesDict     *ServicesDict
	servicesDictOnce sync.Once
)

// LoadServicesDict reads the YAML service dictionary at path, caching the
// result for the process lifetime.
func LoadServicesDict(path string) *ServicesDict {
	servicesDictOnce.Do(func() {
		servicesDict = readServicesDict(path)
	})
	return servicesDict
}

// readServicesDict parses the dictionary file. A missing or unreadable file
// yields an empty dictionary: the built-in table still applies, custom
// labels are just absent.
func readServicesDict(path string) *ServicesDict {
	empty := &ServicesDict{Services: map[int]string{}}
	if path == "" {
		return empty
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return empty
	}
	var dict ServicesDict
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return empty
	}
	if dict.Services == nil {
		return empty
	}
	return &dict
}
