package shader

import (
	"fmt"
	"regexp"
	"strings"
)

// includeRegex matches "// #include name" directive lines.
var includeRegex = regexp.MustCompile(`^\s*//\s*#include\s+([\w.\-]+)\s*$`)

type preProcessor struct {
	includes map[string]string
}

// PreProcessor expands include directives so GPU struct definitions shared between
// Go and WGSL live in one place.
type PreProcessor interface {
	// Process expands every include directive in source. Each include is expanded at most once
	// per source; repeated directives for the same name are dropped.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded source
	//   - error: an error naming the line of an unknown include
	Process(source string) (string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a pre-processor resolving includes from the given registry.
func NewPreProcessor(includes map[string]string) PreProcessor {
	return &preProcessor{includes: includes}
}

func (p *preProcessor) Process(source string) (string, error) {
	seen := make(map[string]bool)
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		m := includeRegex.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		name := m[1]
		src, ok := p.includes[name]
		if !ok {
			return "", fmt.Errorf("line %d: unknown include %q", i+1, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, strings.TrimRight(src, "\n"))
	}
	return strings.Join(out, "\n"), nil
}
