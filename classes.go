package labelkit

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Classes is the ordered list of class names a workspace was configured
// with.  Box class ids index into this list.
type Classes []string

// Count returns the number of known classes.
func (c Classes) Count() int {
	return len(c)
}

// Name returns the class name for id, or a numeric placeholder when the
// id is out of range.
func (c Classes) Name(id int) string {
	if id < 0 || id >= len(c) {
		return strconv.Itoa(id)
	}
	return c[id]
}

// dataYAML mirrors the subset of the ultralytics data.yaml schema the
// annotator cares about.
type dataYAML struct {
	NC    int `yaml:"nc,omitempty"`
	Names any `yaml:"names"`
}

// LoadClassesYAML reads class names from a data.yaml file.  The names key
// may be either a list in index order or an {index: name} mapping.
func LoadClassesYAML(file string) (Classes, error) {

	buf, err := os.ReadFile(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	var data dataYAML

	if err := yaml.Unmarshal(buf, &data); err != nil {
		return nil, fmt.Errorf("error parsing yaml: %w", err)
	}

	var classes Classes

	switch names := data.Names.(type) {

	case nil:
		return nil, nil

	case []any:
		for _, n := range names {
			classes = append(classes, fmt.Sprintf("%v", n))
		}

	case map[string]any:
		// sparse {index: name} mapping, order by index
		idx := make([]int, 0, len(names))
		byIdx := make(map[int]string, len(names))

		for k, v := range names {
			i, err := strconv.Atoi(k)

			if err != nil {
				return nil, fmt.Errorf("error parsing yaml: names key %q is not an index", k)
			}

			idx = append(idx, i)
			byIdx[i] = fmt.Sprintf("%v", v)
		}

		sort.Ints(idx)

		if len(idx) > 0 {
			classes = make(Classes, idx[len(idx)-1]+1)
			for i, name := range byIdx {
				classes[i] = name
			}
		}

	default:
		return nil, fmt.Errorf("error parsing yaml: unsupported names type %T", names)
	}

	if data.NC > 0 && data.NC != len(classes) {
		return nil, fmt.Errorf("error parsing yaml: nc is %d but %d names given",
			data.NC, len(classes))
	}

	return classes, nil
}

// SaveClassesYAML writes the class list to a data.yaml file in the
// canonical {nc, names: {index: name}} form.
func SaveClassesYAML(file string, classes Classes) error {

	names := make(map[int]string, len(classes))

	for i, name := range classes {
		names[i] = name
	}

	buf, err := yaml.Marshal(map[string]any{
		"nc":    len(classes),
		"names": names,
	})

	if err != nil {
		return fmt.Errorf("error encoding yaml: %w", err)
	}

	if err := os.WriteFile(file, buf, 0o644); err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}

	return nil
}

// LoadClassesText reads class names from a plain text file containing one
// name per line.  The line number is the class id.
func LoadClassesText(file string) (Classes, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var classes Classes

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// blank lines would register as unnamed classes and shift the
		// valid id range
		if line == "" {
			continue
		}

		classes = append(classes, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return classes, nil
}

// ParseClassesCSV splits a manual comma-separated class entry into an
// ordered class list.  Empty entries are dropped.
func ParseClassesCSV(s string) Classes {

	var classes Classes

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)

		if part == "" {
			continue
		}

		classes = append(classes, part)
	}

	return classes
}
