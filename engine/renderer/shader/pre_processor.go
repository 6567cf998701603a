// pre_processor.go implements the WGSL include pre-processor. Shader bodies reference the
// GPU struct definitions they bind by name with a single-line directive, and the
// pre-processor splices the registered WGSL source in its place:
//
//	//@oxy:include camera
//
// Struct sources are embedded from the .wgsl asset next to the Go type that marshals them,
// so the Go layout and the WGSL layout live side by side.
package shader

import (
	"fmt"
	"strings"
)

// includePrefix marks an include directive inside a WGSL line comment.
const includePrefix = "//@oxy:include"

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// includes maps an include name to the WGSL source it expands to.
	includes map[string]string
	// included records which names the last Process call expanded, in source order.
	included []string
}

// PreProcessor expands include directives in WGSL source.
type PreProcessor interface {
	// Process replaces every include directive with its registered WGSL source. Each name is
	// expanded once; repeated directives for the same name produce no further output.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error naming the line of a malformed or unknown directive
	Process(source string) (string, error)

	// Included returns the include names expanded by the most recent Process call, in order.
	//
	// Returns:
	//   - []string: the expanded include names
	Included() []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor over the given include registry.
//
// Parameters:
//   - includes: include name to WGSL source
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor(includes map[string]string) PreProcessor {
	registry := make(map[string]string, len(includes))
	for name, src := range includes {
		registry[name] = src
	}
	return &preProcessor{includes: registry}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.included = p.included[:0]
	seen := make(map[string]bool)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), includePrefix)
		if !ok {
			out = append(out, line)
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) != 1 {
			return "", fmt.Errorf("line %d: include expects exactly one name, got %d", i+1, len(fields))
		}
		name := fields[0]
		src, ok := p.includes[name]
		if !ok {
			return "", fmt.Errorf("line %d: unknown include %q", i+1, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		p.included = append(p.included, name)
		out = append(out, strings.TrimRight(src, "\n"))
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Included() []string {
	return p.included
}
