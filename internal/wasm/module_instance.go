package wasm

// ModuleInstance is the ordered record of ordered sequences described in
// §3: function-types, functions, tables, memories, globals, element- and
// data-segments, plus a name->extern export map. All sequences are
// append-only after Init (segments may individually be dropped; see
// ElementSegment/DataSegment).
type ModuleInstance struct {
	Types   []*FunctionType
	Funcs   []*FunctionInstance
	Tables  []*TableInstance
	Mems    []*MemoryInstance
	Globals []*GlobalInstance

	Elems []*ElementSegment
	Datas []*DataSegment

	Exports map[string]*Export

	Name string
}

// Export is one entry of a module's export map: the kind plus the index
// into the matching ModuleInstance sequence.
type Export struct {
	Type ExternType
	Idx  Index
}

func (m *ModuleInstance) Func(i Index) *FunctionInstance     { return m.Funcs[i] }
func (m *ModuleInstance) Table(i Index) *TableInstance       { return m.Tables[i] }
func (m *ModuleInstance) Mem(i Index) *MemoryInstance        { return m.Mems[i] }
func (m *ModuleInstance) Global(i Index) *GlobalInstance     { return m.Globals[i] }
func (m *ModuleInstance) Elem(i Index) *ElementSegment       { return m.Elems[i] }
func (m *ModuleInstance) Data(i Index) *DataSegment          { return m.Datas[i] }

// GetExport looks up an export by name and extern kind, mirroring
// wazero's ModuleInstance.getExport (internal/wasm/store.go).
func (m *ModuleInstance) GetExport(name string, kind ExternType) (*Export, bool) {
	ex, ok := m.Exports[name]
	if !ok || ex.Type != kind {
		return nil, false
	}
	return ex, true
}
