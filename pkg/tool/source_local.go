package tool

import "context"

// LocalSource is a Source backed by a static, in-process list of Tools.
// It is the simplest Source implementation: Discover is a no-op since the
// tools are already constructed.
type LocalSource struct {
	name  string
	tools map[string]Tool
}

// NewLocalSource builds a LocalSource from an explicit tool list.
func NewLocalSource(name string, tools ...Tool) *LocalSource {
	m := make(map[string]Tool, len(tools))
	for _, t := range tools {
		m[t.Definition().Name] = t
	}
	return &LocalSource{name: name, tools: m}
}

func (s *LocalSource) Name() string { return s.name }

func (s *LocalSource) Discover(ctx context.Context) error { return nil }

func (s *LocalSource) List() []Definition {
	defs := make([]Definition, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, t.Definition())
	}
	return defs
}

func (s *LocalSource) Get(name string) (Tool, bool) {
	t, ok := s.tools[name]
	return t, ok
}

var _ Source = (*LocalSource)(nil)
