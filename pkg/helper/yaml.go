package helper

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

func ReadYAMLFile(name string, data interface{}) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	return ReadYAML(f, data)
}

func ReadYAML(r io.Reader, data interface{}) error { return yaml.NewDecoder(r).Decode(data) }
