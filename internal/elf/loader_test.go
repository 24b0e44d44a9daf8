package elf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"astraos/internal/memlayout"
)

// fakeReader is an in-memory Reader over a fixed byte slice.
type fakeReader struct {
	data []byte
}

func (f *fakeReader) Size() uint32 { return uint32(len(f.data)) }

func (f *fakeReader) ReadAt(offset uint32, out []byte) (int, error) {
	if int(offset) >= len(f.data) {
		return 0, nil
	}
	n := copy(out, f.data[offset:])
	return n, nil
}

// fakeMemory is an in-memory Memory over a map of written ranges, enough
// to assert on exact bytes written by Load.
type fakeMemory struct {
	writes map[uint32][]byte
}

func newFakeMemory() *fakeMemory { return &fakeMemory{writes: make(map[uint32][]byte)} }

func (m *fakeMemory) WriteAt(vaddr uint32, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.writes[vaddr] = cp
	return nil
}

func (m *fakeMemory) ZeroAt(vaddr uint32, length uint32) error {
	m.writes[vaddr] = make([]byte, length)
	return nil
}

// buildELF assembles a minimal valid ET_EXEC/EM_386 image with one
// PT_LOAD segment carrying payload at vaddr, with memsz = len(payload)+bssLen.
func buildELF(t *testing.T, entry, vaddr uint32, payload []byte, bssLen uint32) []byte {
	t.Helper()
	const ehSizeLocal = 52
	const phSizeLocal = 32

	hdr := fileHeader{
		Type:      typeExec,
		Machine:   machine386,
		Version:   evCurrent,
		Entry:     entry,
		Phoff:     ehSizeLocal,
		Ehsize:    ehSizeLocal,
		Phentsize: phSizeLocal,
		Phnum:     1,
	}
	copy(hdr.Ident[:4], magic[:])
	hdr.Ident[4] = classELF32
	hdr.Ident[5] = dataLSB
	hdr.Ident[6] = evCurrent

	ph := progHeader{
		Type:   ptLoad,
		Offset: ehSizeLocal + phSizeLocal,
		Vaddr:  vaddr,
		Filesz: uint32(len(payload)),
		Memsz:  uint32(len(payload)) + bssLen,
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		t.Fatalf("encoding header: %v", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, &ph); err != nil {
		t.Fatalf("encoding program header: %v", err)
	}
	buf.Write(payload)
	return buf.Bytes()
}

func TestLoadValidImage(t *testing.T) {
	payload := []byte{0x90, 0x90, 0xCD, 0x80} // nop; nop; int 0x80
	vaddr := uint32(memlayout.UserMinVAddr)
	data := buildELF(t, vaddr, vaddr, payload, 12)

	mem := newFakeMemory()
	img, err := Load(&fakeReader{data: data}, mem)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Entry != vaddr {
		t.Errorf("Entry = %#x, want %#x", img.Entry, vaddr)
	}
	if img.Low != vaddr {
		t.Errorf("Low = %#x, want %#x", img.Low, vaddr)
	}
	wantHigh := vaddr + uint32(len(payload)) + 12
	if img.High != wantHigh {
		t.Errorf("High = %#x, want %#x", img.High, wantHigh)
	}
	if got := mem.writes[vaddr]; !bytes.Equal(got, payload) {
		t.Errorf("segment bytes = %v, want %v", got, payload)
	}
	if got := mem.writes[vaddr+uint32(len(payload))]; len(got) != 12 {
		t.Errorf("bss length = %d, want 12", len(got))
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	data := buildELF(t, memlayout.UserMinVAddr, memlayout.UserMinVAddr, []byte{1}, 0)
	data[0] = 0x00
	if _, err := Load(&fakeReader{data: data}, newFakeMemory()); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestLoadRejectsOutOfRangeSegment(t *testing.T) {
	data := buildELF(t, memlayout.UserMaxVAddr-4, memlayout.UserMaxVAddr-4, make([]byte, 16), 0)
	if _, err := Load(&fakeReader{data: data}, newFakeMemory()); err == nil {
		t.Fatal("expected error for segment escaping user region")
	}
}

func TestLoadRejectsEntryOutsideRange(t *testing.T) {
	vaddr := uint32(memlayout.UserMinVAddr)
	data := buildELF(t, vaddr+1000, vaddr, []byte{1, 2, 3}, 0)
	if _, err := Load(&fakeReader{data: data}, newFakeMemory()); err == nil {
		t.Fatal("expected error for entry outside loaded range")
	}
}

func TestLoadRejectsTooManyProgramHeaders(t *testing.T) {
	data := buildELF(t, memlayout.UserMinVAddr, memlayout.UserMinVAddr, []byte{1}, 0)
	// Patch Phnum in the encoded header (offset 44, uint16 LE) past the cap.
	binary.LittleEndian.PutUint16(data[44:46], 33)
	if _, err := Load(&fakeReader{data: data}, newFakeMemory()); err == nil {
		t.Fatal("expected error for too many program headers")
	}
}
