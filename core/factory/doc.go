// Package factory provides a small generic registry used to instantiate
// pluggable modules (solvers, cost providers, metrics sinks) from
// configuration. Modules are defined by a type string and a map of raw
// settings which factories decode into typed structs.
//
// Example usage:
//
//	reg := factory.NewRegistry[planner.CostProvider]()
//	reg.Register("sqlite", func(conf map[string]any) (planner.CostProvider, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return costs.NewSQLiteProvider(c.Path, 0)
//	})
//	p, err := reg.Create(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": "costs.db"}})
package factory
