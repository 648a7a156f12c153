package nodes

import (
	"fmt"

	"github.com/portgraph/engine/graph"
)

// Register installs factories for every built-in node kind into reg,
// under the type tags "constant", "double", "loop", "counter",
// "failing_counter", and "gate". Callers compose their own Registry
// and call Register once per process or test that wants these kinds
// available; there is no package-level global registry.
func Register(reg *graph.Registry) {
	reg.MustRegister("constant", func(id, parent string, cfg map[string]any) (graph.Node, error) {
		vt, _ := cfg["type"].(graph.ValueType)
		return NewConstant(id, parent, cfg["value"], vt), nil
	})
	reg.MustRegister("double", func(id, parent string, _ map[string]any) (graph.Node, error) {
		return NewDouble(id, parent), nil
	})
	reg.MustRegister("loop", func(id, parent string, cfg map[string]any) (graph.Node, error) {
		start, _ := toInt(cfg["start"])
		end, err := toInt(cfg["end"])
		if err != nil {
			return nil, fmt.Errorf("nodes: loop requires an \"end\" config value: %w", err)
		}
		return NewLoop(id, parent, start, end), nil
	})
	reg.MustRegister("counter", func(id, parent string, _ map[string]any) (graph.Node, error) {
		return NewCounter(id, parent), nil
	})
	reg.MustRegister("failing_counter", func(id, parent string, cfg map[string]any) (graph.Node, error) {
		failOn, _ := toInt(cfg["fail_on"])
		return NewFailingCounter(id, parent, failOn), nil
	})
	reg.MustRegister("gate", func(id, parent string, _ map[string]any) (graph.Node, error) {
		return NewGate(id, parent), nil
	})
}
