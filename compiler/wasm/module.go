package wasm

import "slices"

type (
	Module struct {
		Types   []FuncType
		Funcs   []uint32 // type index per function
		Exports []Export
		Codes   []Code
	}

	FuncType struct {
		Params  []ValType
		Results []ValType
	}

	Export struct {
		Name  string
		Kind  ExtKind
		Index uint32
	}

	// Code is a function body: local declarations and instructions up to and including end.
	Code struct {
		Locals []Local
		Body   []byte
	}

	Local struct {
		Count uint32
		Type  ValType
	}
)

// AddType registers function type t and returns its index. Equal types share an index.
func (m *Module) AddType(t FuncType) uint32 {
	for i, x := range m.Types {
		if slices.Equal(x.Params, t.Params) && slices.Equal(x.Results, t.Results) {
			return uint32(i)
		}
	}

	m.Types = append(m.Types, t)

	return uint32(len(m.Types) - 1)
}

// AddFunc declares function of type typ with body code and returns its index.
func (m *Module) AddFunc(typ uint32, code Code) uint32 {
	m.Funcs = append(m.Funcs, typ)
	m.Codes = append(m.Codes, code)

	return uint32(len(m.Funcs) - 1)
}

func (m *Module) AddExport(name string, kind ExtKind, idx uint32) {
	m.Exports = append(m.Exports, Export{
		Name:  name,
		Kind:  kind,
		Index: idx,
	})
}

// AppendBinary encodes the module. The type, function, export
// and code sections are always present, in this order.
func (m *Module) AppendBinary(b []byte) []byte {
	b = AppendHeader(b)

	b = AppendSection(b, SectionType, m.appendTypes(nil))
	b = AppendSection(b, SectionFunc, m.appendFuncs(nil))
	b = AppendSection(b, SectionExport, m.appendExports(nil))
	b = AppendSection(b, SectionCode, m.appendCodes(nil))

	return b
}

func (m *Module) appendTypes(b []byte) []byte {
	b = AppendULEB128(b, uint32(len(m.Types)))

	for _, t := range m.Types {
		b = append(b, FuncTypeTag)

		b = AppendULEB128(b, uint32(len(t.Params)))
		for _, p := range t.Params {
			b = append(b, byte(p))
		}

		b = AppendULEB128(b, uint32(len(t.Results)))
		for _, r := range t.Results {
			b = append(b, byte(r))
		}
	}

	return b
}

func (m *Module) appendFuncs(b []byte) []byte {
	b = AppendULEB128(b, uint32(len(m.Funcs)))

	for _, typ := range m.Funcs {
		b = AppendULEB128(b, typ)
	}

	return b
}

func (m *Module) appendExports(b []byte) []byte {
	b = AppendULEB128(b, uint32(len(m.Exports)))

	for _, e := range m.Exports {
		b = AppendName(b, e.Name)
		b = append(b, byte(e.Kind))
		b = AppendULEB128(b, e.Index)
	}

	return b
}

func (m *Module) appendCodes(b []byte) []byte {
	b = AppendULEB128(b, uint32(len(m.Codes)))

	var body []byte

	for _, c := range m.Codes {
		body = AppendULEB128(body[:0], uint32(len(c.Locals)))

		for _, l := range c.Locals {
			body = AppendULEB128(body, l.Count)
			body = append(body, byte(l.Type))
		}

		body = append(body, c.Body...)

		b = AppendULEB128(b, uint32(len(body)))
		b = append(b, body...)
	}

	return b
}

// AppendI32Const appends i32.const v instruction.
func AppendI32Const(b []byte, v int32) []byte {
	b = append(b, byte(OpI32Const))
	return AppendSLEB128(b, v)
}

func AppendCall(b []byte, idx uint32) []byte {
	b = append(b, byte(OpCall))
	return AppendULEB128(b, idx)
}

func AppendOp(b []byte, op Opcode) []byte {
	return append(b, byte(op))
}
