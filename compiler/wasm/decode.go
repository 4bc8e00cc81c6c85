package wasm

import (
	"bytes"
	"fmt"

	"tlog.app/go/errors"
)

type (
	// Instr is a decoded instruction. Arg is the immediate, if any.
	Instr struct {
		Op  Opcode
		Arg int64
	}

	reader struct {
		b []byte
		i int
	}

	DecodeError struct {
		Pos int
		Err error
	}
)

var (
	ErrBadMagic   = errors.New("bad magic")
	ErrBadVersion = errors.New("unsupported version")
	ErrShort      = errors.New("unexpected end of data")
	ErrOverflow   = errors.New("leb128 overflow")
)

// Decode reads a binary module back. Only sections produced by Module.AppendBinary are
// supported; custom sections are skipped.
func Decode(b []byte) (m *Module, err error) {
	r := &reader{b: b}

	if !bytes.HasPrefix(b, Magic[:]) {
		return nil, r.errorf(ErrBadMagic)
	}

	r.i = len(Magic)

	if !bytes.HasPrefix(b[r.i:], Version[:]) {
		return nil, r.errorf(ErrBadVersion)
	}

	r.i += len(Version)

	m = &Module{}
	last := SectionCustom

	for r.i < len(r.b) {
		id, err := r.byte()
		if err != nil {
			return nil, r.errorf(err)
		}

		size, err := r.uleb()
		if err != nil {
			return nil, r.errorf(errors.Wrap(err, "section size"))
		}

		if int(size) > len(r.b)-r.i {
			return nil, r.errorf(errors.Wrap(ErrShort, "section %v", SectionID(id)))
		}

		end := r.i + int(size)
		sec := &reader{b: r.b[:end], i: r.i}

		switch sid := SectionID(id); sid {
		case SectionCustom:
		case SectionType, SectionFunc, SectionExport, SectionCode:
			if sid <= last {
				return nil, r.errorf(errors.New("section %v out of order", sid))
			}

			last = sid

			err = sec.section(m, sid)
			if err != nil {
				return nil, errors.Wrap(err, "section %v", sid)
			}

			if sec.i != end {
				return nil, sec.errorf(errors.New("section %v: %d trailing bytes", sid, end-sec.i))
			}
		default:
			return nil, r.errorf(errors.New("unsupported section: %v", sid))
		}

		r.i = end
	}

	if len(m.Funcs) != len(m.Codes) {
		return nil, errors.New("function and code section size mismatch: %d != %d", len(m.Funcs), len(m.Codes))
	}

	return m, nil
}

// Instructions disassembles function body instructions.
func Instructions(body []byte) (l []Instr, err error) {
	r := &reader{b: body}

	for r.i < len(r.b) {
		c, err := r.byte()
		if err != nil {
			return nil, r.errorf(err)
		}

		in := Instr{Op: Opcode(c)}

		switch in.Op {
		case OpEnd, OpReturn:
		case OpCall:
			x, err := r.uleb()
			if err != nil {
				return nil, r.errorf(errors.Wrap(err, "call index"))
			}

			in.Arg = int64(x)
		case OpI32Const:
			x, err := r.sleb()
			if err != nil {
				return nil, r.errorf(errors.Wrap(err, "i32.const"))
			}

			in.Arg = int64(x)
		default:
			return nil, r.errorf(errors.New("unsupported opcode: 0x%02x", c))
		}

		l = append(l, in)
	}

	return l, nil
}

func (r *reader) section(m *Module, id SectionID) error {
	n, err := r.uleb()
	if err != nil {
		return r.errorf(errors.Wrap(err, "vector length"))
	}

	for j := 0; j < int(n); j++ {
		switch id {
		case SectionType:
			err = r.funcType(m)
		case SectionFunc:
			var typ uint32

			typ, err = r.uleb()
			m.Funcs = append(m.Funcs, typ)
		case SectionExport:
			err = r.export(m)
		case SectionCode:
			err = r.code(m)
		}

		if err != nil {
			return r.errorf(errors.Wrap(err, "entry %d", j))
		}
	}

	return nil
}

func (r *reader) funcType(m *Module) (err error) {
	tag, err := r.byte()
	if err != nil {
		return err
	}

	if tag != FuncTypeTag {
		return errors.New("func type expected, got 0x%02x", tag)
	}

	var t FuncType

	t.Params, err = r.valTypes()
	if err != nil {
		return errors.Wrap(err, "params")
	}

	t.Results, err = r.valTypes()
	if err != nil {
		return errors.Wrap(err, "results")
	}

	m.Types = append(m.Types, t)

	return nil
}

func (r *reader) valTypes() (l []ValType, err error) {
	n, err := r.uleb()
	if err != nil {
		return nil, err
	}

	for j := 0; j < int(n); j++ {
		c, err := r.byte()
		if err != nil {
			return nil, err
		}

		l = append(l, ValType(c))
	}

	return l, nil
}

func (r *reader) export(m *Module) (err error) {
	name, err := r.name()
	if err != nil {
		return errors.Wrap(err, "name")
	}

	kind, err := r.byte()
	if err != nil {
		return errors.Wrap(err, "kind")
	}

	idx, err := r.uleb()
	if err != nil {
		return errors.Wrap(err, "index")
	}

	m.Exports = append(m.Exports, Export{
		Name:  name,
		Kind:  ExtKind(kind),
		Index: idx,
	})

	return nil
}

func (r *reader) code(m *Module) (err error) {
	size, err := r.uleb()
	if err != nil {
		return errors.Wrap(err, "body size")
	}

	if int(size) > len(r.b)-r.i {
		return ErrShort
	}

	end := r.i + int(size)
	body := &reader{b: r.b[:end], i: r.i}

	n, err := body.uleb()
	if err != nil {
		return errors.Wrap(err, "locals")
	}

	var c Code

	for j := 0; j < int(n); j++ {
		cnt, err := body.uleb()
		if err != nil {
			return errors.Wrap(err, "locals")
		}

		typ, err := body.byte()
		if err != nil {
			return errors.Wrap(err, "locals")
		}

		c.Locals = append(c.Locals, Local{Count: cnt, Type: ValType(typ)})
	}

	c.Body = append([]byte{}, r.b[body.i:end]...)

	m.Codes = append(m.Codes, c)
	r.i = end

	return nil
}

func (r *reader) name() (string, error) {
	n, err := r.uleb()
	if err != nil {
		return "", err
	}

	if int(n) > len(r.b)-r.i {
		return "", ErrShort
	}

	s := string(r.b[r.i : r.i+int(n)])
	r.i += int(n)

	return s, nil
}

func (r *reader) byte() (byte, error) {
	if r.i >= len(r.b) {
		return 0, ErrShort
	}

	c := r.b[r.i]
	r.i++

	return c, nil
}

func (r *reader) uleb() (v uint32, err error) {
	var sh uint

	for {
		c, err := r.byte()
		if err != nil {
			return 0, err
		}

		if sh == 28 && c&0x70 != 0 {
			return 0, ErrOverflow
		}

		v |= uint32(c&0x7f) << sh

		if c&0x80 == 0 {
			return v, nil
		}

		sh += 7

		if sh > 28 {
			return 0, ErrOverflow
		}
	}
}

func (r *reader) sleb() (v int32, err error) {
	var x int64
	var sh uint

	for {
		c, err := r.byte()
		if err != nil {
			return 0, err
		}

		x |= int64(c&0x7f) << sh
		sh += 7

		if c&0x80 == 0 {
			if sh < 64 && c&0x40 != 0 {
				x |= -1 << sh
			}

			break
		}

		if sh >= 35 {
			return 0, ErrOverflow
		}
	}

	if x < -1<<31 || x > 1<<31-1 {
		return 0, ErrOverflow
	}

	return int32(x), nil
}

func (r *reader) errorf(err error) error {
	return DecodeError{Pos: r.i, Err: err}
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("at 0x%x: %v", e.Pos, e.Err)
}

func (e DecodeError) Unwrap() error { return e.Err }
