package reports

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/flanksource/commons/properties"
)

// LoadPropertiesFile sets every key=value line of filename as a global
// property, where the context properties layer picks them up.
func LoadPropertiesFile(filename string) (map[string]string, error) {
	props, err := ParsePropertiesFile(filename)
	if err != nil {
		return nil, err
	}
	for key, value := range props {
		properties.Set(key, value)
	}
	return props, nil
}

func ParsePropertiesFile(filename string) (map[string]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var props = make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tokens := strings.SplitN(line, "=", 2)
		if len(tokens) != 2 {
			return nil, fmt.Errorf("invalid line: %s", line)
		}

		props[strings.TrimSpace(tokens[0])] = strings.TrimSpace(tokens[1])
	}

	if scanner.Err() != nil {
		return nil, scanner.Err()
	}

	return props, nil
}
