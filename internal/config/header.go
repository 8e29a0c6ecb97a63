package config

import (
	"os"
	"strings"
)

const headerMarker = "## repo: github.com/soar/padmapper"

var headerLines = []string{
	"## padmapper: gamepad to keyboard and mouse",
	headerMarker,
}

// InjectHeader inserts the project header after any leading "##" lines of
// the file at path. A file that already carries the header is left alone.
func InjectHeader(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := string(data)
	if strings.Contains(text, headerMarker) {
		return nil
	}

	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) && strings.HasPrefix(lines[i], "##") {
		i++
	}

	out := make([]string, 0, len(lines)+len(headerLines))
	out = append(out, lines[:i]...)
	out = append(out, headerLines...)
	out = append(out, lines[i:]...)
	return os.WriteFile(path, []byte(strings.Join(out, "\n")), 0o644)
}
