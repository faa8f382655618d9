package cbot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// StateReader is what the restore functions read from. bufio.Reader and
// bytes.Reader satisfy it.
type StateReader interface {
	io.Reader
	io.ByteReader
}

var errBadState = errors.New("corrupt saved state")

// maxStringLen bounds string lengths accepted from a stream
const maxStringLen = 1 << 24

// All numbers are little endian and fixed width: word and short 2 bytes,
// int and uint32 4 bytes, long 8 bytes.

func writeBytes(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return err
}

func readFixed(r StateReader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: truncated value", errBadState)
		}
		return err
	}
	return nil
}

// WriteWord writes an unsigned 16-bit marker
func WriteWord(w io.Writer, v uint16) error {
	return writeBytes(w, binary.LittleEndian.AppendUint16(nil, v))
}

// ReadWord reads a value written by WriteWord
func ReadWord(r StateReader) (uint16, error) {
	var buf [2]byte
	if err := readFixed(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// WriteInt writes a signed 32-bit value
func WriteInt(w io.Writer, v int32) error {
	return WriteUInt32(w, uint32(v))
}

// ReadInt reads a value written by WriteInt
func ReadInt(r StateReader) (int32, error) {
	v, err := ReadUInt32(r)
	return int32(v), err
}

// WriteLong writes a signed 64-bit value
func WriteLong(w io.Writer, v int64) error {
	return writeBytes(w, binary.LittleEndian.AppendUint64(nil, uint64(v)))
}

// ReadLong reads a value written by WriteLong
func ReadLong(r StateReader) (int64, error) {
	var buf [8]byte
	if err := readFixed(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

// WriteShort writes a signed 16-bit value
func WriteShort(w io.Writer, v int16) error {
	return WriteWord(w, uint16(v))
}

// ReadShort reads a value written by WriteShort
func ReadShort(r StateReader) (int16, error) {
	v, err := ReadWord(r)
	return int16(v), err
}

// WriteUInt32 writes an unsigned 32-bit value
func WriteUInt32(w io.Writer, v uint32) error {
	return writeBytes(w, binary.LittleEndian.AppendUint32(nil, v))
}

// ReadUInt32 reads a value written by WriteUInt32
func ReadUInt32(r StateReader) (uint32, error) {
	var buf [4]byte
	if err := readFixed(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteByte writes one raw byte
func WriteByte(w io.Writer, v byte) error {
	return writeBytes(w, []byte{v})
}

// ReadByte reads one raw byte
func ReadByte(r StateReader) (byte, error) {
	return r.ReadByte()
}

// WriteFloat writes a 32-bit float, little endian
func WriteFloat(w io.Writer, v float32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	return writeBytes(w, buf[:])
}

// ReadFloat reads a value written by WriteFloat
func ReadFloat(r StateReader) (float32, error) {
	var buf [4]byte
	if err := readFixed(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[:])), nil
}

// WriteDouble writes a 64-bit float, little endian
func WriteDouble(w io.Writer, v float64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return writeBytes(w, buf[:])
}

// ReadDouble reads a value written by WriteDouble
func ReadDouble(r StateReader) (float64, error) {
	var buf [8]byte
	if err := readFixed(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

// WriteString writes a UTF-8 string after its uint32 byte length
func WriteString(w io.Writer, s string) error {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(len(s)))
	return writeBytes(w, append(buf, s...))
}

// ReadString reads a value written by WriteString
func ReadString(r StateReader) (string, error) {
	n, err := ReadUInt32(r)
	if err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", fmt.Errorf("%w: string of %d bytes", errBadState, n)
	}
	buf := make([]byte, n)
	if err := readFixed(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteType writes a complete type: the tag, then the class name for class
// types, or the size and element type for arrays
func WriteType(w io.Writer, t TypeResult) error {
	if err := WriteWord(w, uint16(t.typ)); err != nil {
		return err
	}
	switch t.typ {
	case TypPointer, TypNullPointer, TypClass, TypIntrinsic:
		return WriteString(w, t.class.Name())
	case TypArrayPointer, TypArrayBody:
		if err := WriteInt(w, int32(t.limit)); err != nil {
			return err
		}
		return WriteType(w, t.Elem())
	}
	return nil
}

// ReadType reads a type written by WriteType, resolving class names in env
func ReadType(r StateReader, env *Environment) (TypeResult, error) {
	w, err := ReadWord(r)
	if err != nil {
		return TypeResult{}, err
	}
	typ := Type(w)
	switch typ {
	case TypPointer, TypNullPointer, TypClass, TypIntrinsic:
		name, err := ReadString(r)
		if err != nil {
			return TypeResult{}, err
		}
		var cl *Class
		if name != "" {
			if cl = env.FindClass(name); cl == nil {
				return TypeResult{}, fmt.Errorf("%w: unknown class %s", errBadState, name)
			}
		}
		return ClassType(typ, cl), nil
	case TypArrayPointer, TypArrayBody:
		limit, err := ReadInt(r)
		if err != nil {
			return TypeResult{}, err
		}
		elem, err := ReadType(r, env)
		if err != nil {
			return TypeResult{}, err
		}
		return ArrayType(typ, elem).WithLimit(int(limit)), nil
	}
	if typ > TypIntrinsic {
		return TypeResult{}, fmt.Errorf("%w: type tag %d", errBadState, w)
	}
	return NewType(typ), nil
}
