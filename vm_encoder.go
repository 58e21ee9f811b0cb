package pegvm

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// programMagic starts every encoded program and is followed by the
// version of the format
const (
	programMagic   = "PEGV"
	programVersion = 1
)

const (
	opEnd byte = iota
	opAny
	opChar
	opSet
	opFail
	opFailTwice
	opChoice
	opCommit
	opPartialCommit
	opBackCommit
	opJump
	opCall
	opReturn
	opFullCapture
	opOpenCapture
	opCloseCapture
)

var ErrBadEncoding = errors.New("malformed program encoding")

// MarshalBinary encodes the program as the magic header, the
// instructions (an opcode byte followed by varint operands), the
// rule table and the capture table.  The configuration isn't part of
// the encoding.
func (p *Program) MarshalBinary() ([]byte, error) {
	code := append([]byte(programMagic), programVersion)
	code = binary.AppendUvarint(code, uint64(len(p.code)))

	for pc, instruction := range p.code {
		switch ii := instruction.(type) {
		case IEnd:
			code = append(code, opEnd)
		case IAny:
			code = append(code, opAny)
		case IChar:
			code = append(code, opChar)
			code = binary.AppendVarint(code, int64(ii.Char))
			code = appendBool(code, ii.CaseInsensitive)
		case ISet:
			code = append(code, opSet)
			code = appendBool(code, ii.Set.Negated())
			ranges := ii.Set.Ranges()
			code = binary.AppendUvarint(code, uint64(len(ranges)))
			for _, r := range ranges {
				code = binary.AppendVarint(code, int64(r.Lo))
				code = binary.AppendVarint(code, int64(r.Hi))
			}
		case IFail:
			code = append(code, opFail)
		case IFailTwice:
			code = append(code, opFailTwice)
		case IChoice:
			code = encodeJmp(code, opChoice, ii.Offset)
		case ICommit:
			code = encodeJmp(code, opCommit, ii.Offset)
		case IPartialCommit:
			code = encodeJmp(code, opPartialCommit, ii.Offset)
			code = appendBool(code, ii.Progress)
		case IBackCommit:
			code = encodeJmp(code, opBackCommit, ii.Offset)
		case IJump:
			code = encodeJmp(code, opJump, ii.Offset)
		case ICall:
			code = encodeJmp(code, opCall, ii.Offset)
		case IReturn:
			code = append(code, opReturn)
		case IFullCapture:
			code = append(code, opFullCapture, byte(ii.Kind))
			code = binary.AppendUvarint(code, uint64(ii.Size))
			code = binary.AppendUvarint(code, uint64(ii.Index))
		case IOpenCapture:
			code = append(code, opOpenCapture, byte(ii.Kind))
			code = binary.AppendUvarint(code, uint64(ii.Index))
		case ICloseCapture:
			code = append(code, opCloseCapture)
		default:
			return nil, fmt.Errorf("can't encode `%s` at %d", instruction.Name(), pc)
		}
	}

	rules := p.sortedRules()
	code = binary.AppendUvarint(code, uint64(len(rules)))
	for _, addr := range rules {
		code = binary.AppendUvarint(code, uint64(addr))
		code = appendString(code, p.identifiers[addr])
	}

	code = binary.AppendUvarint(code, uint64(len(p.captures)))
	for _, info := range p.captures {
		code = binary.AppendVarint(code, int64(info.Index))
		code = append(code, byte(info.Kind))
		code = appendString(code, info.Name)
	}
	return code, nil
}

// UnmarshalBinary replaces the program with the one encoded in
// `data`.  The configuration is kept if the program already had one.
func (p *Program) UnmarshalBinary(data []byte) error {
	d := &decoder{data: data}
	if string(d.bytes(len(programMagic))) != programMagic {
		return fmt.Errorf("%w: missing header", ErrBadEncoding)
	}
	if v := d.byte(); v != programVersion {
		return fmt.Errorf("%w: unknown version %d", ErrBadEncoding, v)
	}

	n := d.count()
	code := make([]Instruction, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		switch op := d.byte(); op {
		case opEnd:
			code = append(code, IEnd{})
		case opAny:
			code = append(code, IAny{})
		case opChar:
			code = append(code, IChar{Char: rune(d.varint()), CaseInsensitive: d.bool()})
		case opSet:
			negated := d.bool()
			ranges := make([]CharRange, d.count())
			for j := range ranges {
				ranges[j] = CharRange{Lo: rune(d.varint()), Hi: rune(d.varint())}
			}
			code = append(code, ISet{Set: NewCharset(ranges, negated)})
		case opFail:
			code = append(code, IFail{})
		case opFailTwice:
			code = append(code, IFailTwice{})
		case opChoice:
			code = append(code, IChoice{Offset: d.offset()})
		case opCommit:
			code = append(code, ICommit{Offset: d.offset()})
		case opPartialCommit:
			code = append(code, IPartialCommit{Offset: d.offset(), Progress: d.bool()})
		case opBackCommit:
			code = append(code, IBackCommit{Offset: d.offset()})
		case opJump:
			code = append(code, IJump{Offset: d.offset()})
		case opCall:
			code = append(code, ICall{Offset: d.offset()})
		case opReturn:
			code = append(code, IReturn{})
		case opFullCapture:
			kind := CaptureKind(d.byte())
			code = append(code, IFullCapture{Kind: kind, Size: d.count(), Index: d.count()})
		case opOpenCapture:
			kind := CaptureKind(d.byte())
			code = append(code, IOpenCapture{Kind: kind, Index: d.count()})
		case opCloseCapture:
			code = append(code, ICloseCapture{})
		default:
			d.fail(fmt.Sprintf("unknown opcode 0x%02x", op))
		}
	}

	identifiers := map[int]string{}
	for i, n := 0, d.count(); i < n && d.err == nil; i++ {
		addr := d.count()
		identifiers[addr] = d.string()
	}

	captures := make([]CaptureInfo, 0)
	for i, n := 0, d.count(); i < n && d.err == nil; i++ {
		index := int(d.varint())
		kind := CaptureKind(d.byte())
		captures = append(captures, CaptureInfo{Index: index, Kind: kind, Name: d.string()})
	}

	if d.err != nil {
		return d.err
	}
	if d.pos != len(d.data) {
		return fmt.Errorf("%w: %d trailing bytes", ErrBadEncoding, len(d.data)-d.pos)
	}
	if err := validateCode(code); err != nil {
		return err
	}

	cfg := p.config
	if cfg == nil {
		cfg = NewConfig()
	}
	p.code = code
	p.identifiers = identifiers
	p.captures = captures
	p.config = cfg
	p.vms.New = func() any { return NewVirtualMachine(p) }
	return nil
}

// DecodeProgram creates a new program out of the output of
// `MarshalBinary`
func DecodeProgram(data []byte, cfg *Config) (*Program, error) {
	p := &Program{config: cfg}
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return p, nil
}

// Fingerprint is the xxhash64 of the binary encoding of the program
func (p *Program) Fingerprint() (uint64, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

func encodeJmp(code []byte, op byte, offset int) []byte {
	code = append(code, op)
	return binary.AppendVarint(code, int64(offset))
}

func appendBool(code []byte, v bool) []byte {
	if v {
		return append(code, 1)
	}
	return append(code, 0)
}

func appendString(code []byte, s string) []byte {
	code = binary.AppendUvarint(code, uint64(len(s)))
	return append(code, s...)
}

// decoder reads values out of `data` and remembers the first error
// it finds.  Once an error happened all reads return zero values.
type decoder struct {
	data []byte
	pos  int
	err  error
}

func (d *decoder) fail(msg string) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s at byte %d", ErrBadEncoding, msg, d.pos)
	}
}

func (d *decoder) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.pos+n > len(d.data) {
		d.fail("unexpected end of data")
		return nil
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b
}

func (d *decoder) byte() byte {
	if b := d.bytes(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) bool() bool {
	return d.byte() == 1
}

func (d *decoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.data[d.pos:])
	if n <= 0 {
		d.fail("bad uvarint")
		return 0
	}
	d.pos += n
	return v
}

func (d *decoder) varint() int64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Varint(d.data[d.pos:])
	if n <= 0 {
		d.fail("bad varint")
		return 0
	}
	d.pos += n
	return v
}

// count reads an unsigned value that is used as a length or an
// index, so it must fit in what's left of the data
func (d *decoder) count() int {
	v := d.uvarint()
	if v > uint64(len(d.data))*8+1<<20 {
		d.fail("count out of range")
		return 0
	}
	return int(v)
}

func (d *decoder) offset() int {
	return int(d.varint())
}

func (d *decoder) string() string {
	return string(d.bytes(d.count()))
}
