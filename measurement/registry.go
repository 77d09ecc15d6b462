package measurement

import (
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/mlte/logging"
)

// InspectorConstructor contains a function for constructing an Inspector.
type InspectorConstructor func(logger logging.Logger) (Inspector, error)

var (
	inspectorRegistryMu sync.RWMutex
	inspectorRegistry   = map[string]InspectorConstructor{}
)

// RegisterInspector registers an Inspector constructor under name. Registering the same name
// twice panics.
func RegisterInspector(name string, constructor InspectorConstructor) {
	inspectorRegistryMu.Lock()
	defer inspectorRegistryMu.Unlock()
	if _, old := inspectorRegistry[name]; old {
		panic(errors.Errorf("trying to register two inspectors with the same name: %s", name))
	}
	if constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for inspector %s", name))
	}
	inspectorRegistry[name] = constructor
}

// InspectorLookup looks up an Inspector constructor by name. The second return value is false if
// there is none.
func InspectorLookup(name string) (InspectorConstructor, bool) {
	inspectorRegistryMu.RLock()
	defer inspectorRegistryMu.RUnlock()
	constructor, ok := inspectorRegistry[name]
	return constructor, ok
}

// RegisteredInspectors returns the sorted names of all registered inspectors.
func RegisteredInspectors() []string {
	inspectorRegistryMu.RLock()
	defer inspectorRegistryMu.RUnlock()
	names := lo.Keys(inspectorRegistry)
	slices.Sort(names)
	return names
}

// NewInspector constructs the inspector registered under name.
func NewInspector(name string, logger logging.Logger) (Inspector, error) {
	constructor, ok := InspectorLookup(name)
	if !ok {
		return nil, NewInvalidSubjectError("inspector", name,
			errors.Errorf("registered inspectors are %v", RegisteredInspectors()))
	}
	inspector, err := constructor(logger.Sublogger(name))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to construct inspector %q", name)
	}
	return inspector, nil
}
