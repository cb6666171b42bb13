package wasm

import (
	"fmt"
	"sort"

	"github.com/tetratelabs/wazero/api"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
)

// MemoryExportName is the linear memory export the host reads pixels from.
const MemoryExportName = "memory"

type signature struct {
	params  []api.ValueType
	results []api.ValueType
}

var i32 = api.ValueTypeI32

// frameSignatures lists the exact signature of every export the host knows.
var frameSignatures = map[string]signature{
	frame.ExportInitialize:    {params: []api.ValueType{i32, i32}, results: []api.ValueType{i32}},
	frame.ExportAdvanceFrame:  {},
	frame.ExportBufferPointer: {results: []api.ValueType{i32}},
	frame.ExportBufferLength:  {results: []api.ValueType{i32}},
	frame.ExportFrameCount:    {results: []api.ValueType{i32}},
	frame.ExportSelectPattern: {params: []api.ValueType{i32}, results: []api.ValueType{i32}},
	frame.ExportTheAnswer:     {results: []api.ValueType{i32}},
}

// ValidateFrameExports checks a compiled module against the frame engine
// export contract: the required exports and the memory export exist, known
// exports have their exact signatures, and no exported function passes
// anything but plain numbers.
func ValidateFrameExports(compiled *CompiledModule) error {
	var violations []string

	if _, ok := compiled.Module.ExportedMemories()[MemoryExportName]; !ok {
		violations = append(violations, "missing memory export \"memory\"")
	}

	exports := compiled.Module.ExportedFunctions()
	for _, name := range frame.RequiredExports {
		if _, ok := exports[name]; !ok {
			violations = append(violations, fmt.Sprintf("missing export %q", name))
		}
	}

	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := exports[name]
		if want, ok := frameSignatures[name]; ok {
			if !sameTypes(def.ParamTypes(), want.params) || !sameTypes(def.ResultTypes(), want.results) {
				violations = append(violations, fmt.Sprintf("export %q has signature %s, want %s",
					name, formatSignature(def.ParamTypes(), def.ResultTypes()), formatSignature(want.params, want.results)))
			}
			continue
		}
		if vt, ok := firstNonNumeric(def.ParamTypes(), def.ResultTypes()); ok {
			violations = append(violations, fmt.Sprintf("export %q uses non-numeric type %s",
				name, api.ValueTypeName(vt)))
		}
	}

	if len(violations) > 0 {
		return &ContractError{ModuleName: compiled.Name, Violations: violations}
	}
	return nil
}

func firstNonNumeric(lists ...[]api.ValueType) (api.ValueType, bool) {
	for _, types := range lists {
		for _, vt := range types {
			if !isNumeric(vt) {
				return vt, true
			}
		}
	}
	return 0, false
}

func isNumeric(vt api.ValueType) bool {
	switch vt {
	case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
		return true
	default:
		return false
	}
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatSignature(params, results []api.ValueType) string {
	return fmt.Sprintf("(%s) -> (%s)", typeList(params), typeList(results))
}

func typeList(types []api.ValueType) string {
	s := ""
	for i, vt := range types {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(vt)
	}
	return s
}
