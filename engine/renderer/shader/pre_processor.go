// pre_processor.go implements the WGSL include pre-processor. Program sources declare
// shared blocks with @include("file.wgsl") on a line of their own; the pre-processor
// splices the named embedded source in place and records which files were pulled in.
package shader

import (
	"fmt"
	"io/fs"
	"regexp"
	"slices"
)

// includeRegex matches a whole-line @include("name") directive.
var includeRegex = regexp.MustCompile(`(?m)^[ \t]*@include\(\s*"([^"]+)"\s*\)[ \t]*;?[ \t]*$`)

// maxIncludeDepth bounds nested includes so a cycle fails instead of recursing forever.
const maxIncludeDepth = 8

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	files    fs.FS
	included []string
}

// PreProcessor expands @include directives in WGSL source against a file system of shared snippets.
type PreProcessor interface {
	// Process expands every @include directive in source, recursively.
	// The list of included files is reset at the start of each call.
	//
	// Parameters:
	//   - source: the raw WGSL program source
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error if an include is missing or nesting is too deep
	Process(source string) (string, error)

	// Includes returns the files pulled in by the most recent Process call, in first-use order.
	//
	// Returns:
	//   - []string: included file names
	Includes() []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor that resolves includes from files.
//
// Parameters:
//   - files: the file system holding includable WGSL snippets
//
// Returns:
//   - PreProcessor: the new pre-processor
func NewPreProcessor(files fs.FS) PreProcessor {
	return &preProcessor{files: files}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.included = p.included[:0]
	return p.expand(source, 0)
}

func (p *preProcessor) Includes() []string {
	return slices.Clone(p.included)
}

func (p *preProcessor) expand(source string, depth int) (string, error) {
	if depth > maxIncludeDepth {
		return "", fmt.Errorf("shader: includes nested deeper than %d", maxIncludeDepth)
	}

	var firstErr error
	out := includeRegex.ReplaceAllStringFunc(source, func(line string) string {
		if firstErr != nil {
			return ""
		}
		name := includeRegex.FindStringSubmatch(line)[1]
		data, err := fs.ReadFile(p.files, name)
		if err != nil {
			firstErr = fmt.Errorf("shader: include %q: %w", name, err)
			return ""
		}
		expanded, err := p.expand(string(data), depth+1)
		if err != nil {
			firstErr = err
			return ""
		}
		if !slices.Contains(p.included, name) {
			p.included = append(p.included, name)
		}
		return expanded
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
