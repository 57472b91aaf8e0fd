package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed shaders/*.wgsl
var embedded embed.FS

// Embedded program sources.
const (
	// TraceSource is the file name of the trace program.
	TraceSource = "trace.wgsl"

	// AxisSource is the file name of the axis program.
	AxisSource = "axis.wgsl"

	// MarkerSource is the file name of the point marker program.
	MarkerSource = "marker.wgsl"
)

// ErrMissingEntryPoint is returned when a program lacks a @vertex or @fragment function.
var ErrMissingEntryPoint = errors.New("shader: missing entry point")

// ErrMissingVertexLayout is returned when a program has no vertex input struct.
var ErrMissingVertexLayout = errors.New("shader: missing vertex input layout")

// Binding is a single parsed @group/@binding resource.
type Binding struct {
	Group   int
	Binding int
	VarName string
	Type    string
	Layout  wgpu.BindGroupLayoutEntry
}

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation and uniform encoding.
type shader struct {
	key                        string
	source                     string
	vertexEntryPoint           string
	fragmentEntryPoint         string
	bindings                   []Binding
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	vertexLayouts              []wgpu.VertexBufferLayout
	structs                    map[string]StructLayout
	includes                   []string
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader is a loaded and parsed WGSL program holding both a vertex and a fragment stage.
// It exposes everything a pipeline needs (entry points, bind group layouts, vertex layouts)
// and the host-shareable struct layouts used to encode uniform data.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as the module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code with includes expanded
	Source() string

	// Module returns the wgpu.ShaderModuleDescriptor built from the source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// VertexEntryPoint returns the name of the @vertex function.
	VertexEntryPoint() string

	// FragmentEntryPoint returns the name of the @fragment function.
	FragmentEntryPoint() string

	// VertexLayouts retrieves the vertex buffer layouts, one per vertex input struct.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layouts in source order
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors keyed by group index.
	// Entries within each descriptor are sorted by binding index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// Bindings returns every parsed resource declaration sorted by group and binding.
	Bindings() []Binding

	// BindingFromVarName looks up a resource declaration by its WGSL variable name.
	//
	// Parameters:
	//   - varName: the variable name, e.g. "uniforms"
	//
	// Returns:
	//   - Binding: the declaration
	//   - bool: false if no resource has that name
	BindingFromVarName(varName string) (Binding, bool)

	// Struct looks up the resolved layout of a WGSL struct by name.
	//
	// Parameters:
	//   - name: the struct name, e.g. "TraceUniforms"
	//
	// Returns:
	//   - StructLayout: the layout with field offsets
	//   - bool: false if the struct is unknown or could not be laid out
	Struct(name string) (StructLayout, bool)

	// Includes returns the shared snippets spliced into this program.
	Includes() []string
}

var _ Shader = &shader{}

// Load reads, pre-processes and parses one of the embedded programs.
//
// Parameters:
//   - name: the embedded file name, TraceSource, AxisSource or MarkerSource
//
// Returns:
//   - Shader: the parsed program
//   - error: an error if the file is missing or the program is incomplete
func Load(name string) (Shader, error) {
	files, err := fs.Sub(embedded, "shaders")
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(files, name)
	if err != nil {
		return nil, fmt.Errorf("shader: read %q: %w", name, err)
	}
	return NewShader(name, string(data), files)
}

// NewShader pre-processes and parses a WGSL program. Includes are resolved against files,
// which may be nil when the source has none.
//
// Parameters:
//   - key: a unique identifier for the shader, used as the module label
//   - source: the raw WGSL source
//   - files: the file system used to resolve @include directives
//
// Returns:
//   - Shader: the parsed program
//   - error: an error if pre-processing fails or an entry point or vertex layout is missing
func NewShader(key, source string, files fs.FS) (Shader, error) {
	if files == nil {
		files = embed.FS{}
	}
	pp := NewPreProcessor(files)
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader: %s: %w", key, err)
	}

	s := &shader{
		key:      key,
		source:   processed,
		includes: pp.Includes(),
	}
	s.vertexEntryPoint = parseEntryPoint(processed, wgpu.ShaderStageVertex)
	s.fragmentEntryPoint = parseEntryPoint(processed, wgpu.ShaderStageFragment)
	if s.vertexEntryPoint == "" || s.fragmentEntryPoint == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingEntryPoint, key)
	}

	s.vertexLayouts = parseVertexLayouts(processed)
	if len(s.vertexLayouts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingVertexLayout, key)
	}

	s.structs = computeStructLayouts(parseStructBlocks(stripComments(processed)))

	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	for _, d := range parseBindings(processed, visibility, s.structs) {
		s.bindings = append(s.bindings, Binding{
			Group:   d.group,
			Binding: d.binding,
			VarName: d.varName,
			Type:    d.typeName,
			Layout:  d.entry,
		})
		groups[d.group] = append(groups[d.group], d.entry)
	}
	s.bindGroupLayoutDescriptors = make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		s.bindGroupLayoutDescriptors[g] = wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", key, g),
			Entries: entries,
		}
	}

	s.module = &wgpu.ShaderModuleDescriptor{
		Label: key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: processed,
		},
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) VertexEntryPoint() string {
	return s.vertexEntryPoint
}

func (s *shader) FragmentEntryPoint() string {
	return s.fragmentEntryPoint
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) Bindings() []Binding {
	return s.bindings
}

func (s *shader) BindingFromVarName(varName string) (Binding, bool) {
	for _, b := range s.bindings {
		if b.VarName == varName {
			return b, true
		}
	}
	return Binding{}, false
}

func (s *shader) Struct(name string) (StructLayout, bool) {
	l, ok := s.structs[name]
	return l, ok
}

func (s *shader) Includes() []string {
	return s.includes
}
