package fat16

import "testing"

func newTestFAT(t *testing.T) (*fatTable, BlockDevice) {
	t.Helper()
	dev := NewMemDevice(2880)
	if err := FormatForTest(dev); err != nil {
		t.Fatalf("FormatForTest: %v", err)
	}
	sector := make([]byte, SectorSize)
	dev.ReadSector(0, sector)
	bpb, err := ParseBPB(sector)
	if err != nil {
		t.Fatalf("ParseBPB: %v", err)
	}
	geom := DeriveGeometry(bpb)
	fat, err := loadFATTable(dev, bpb, geom)
	if err != nil {
		t.Fatalf("loadFATTable: %v", err)
	}
	return fat, dev
}

func TestAllocAndChain(t *testing.T) {
	fat, _ := newTestFAT(t)
	c1, err := fat.allocCluster()
	if err != nil {
		t.Fatalf("allocCluster: %v", err)
	}
	c2, err := fat.allocCluster()
	if err != nil {
		t.Fatalf("allocCluster: %v", err)
	}
	if c1 == c2 {
		t.Fatalf("allocCluster returned the same cluster twice: %d", c1)
	}
	if err := fat.linkTail(c1, c2); err != nil {
		t.Fatalf("linkTail: %v", err)
	}
	chain := fat.chain(c1)
	if len(chain) != 2 || chain[0] != c1 || chain[1] != c2 {
		t.Fatalf("chain(%d) = %v, want [%d %d]", c1, chain, c1, c2)
	}
	if !isEndOfChain(fat.get(c2)) {
		t.Errorf("tail cluster %d is not marked end-of-chain", c2)
	}
}

func TestFreeChain(t *testing.T) {
	fat, _ := newTestFAT(t)
	c1, _ := fat.allocCluster()
	c2, _ := fat.allocCluster()
	fat.linkTail(c1, c2)

	if err := fat.freeChain(c1); err != nil {
		t.Fatalf("freeChain: %v", err)
	}
	if fat.get(c1) != FATFree || fat.get(c2) != FATFree {
		t.Errorf("expected both clusters free after freeChain, got %d=%#x %d=%#x", c1, fat.get(c1), c2, fat.get(c2))
	}
}

// TestMirrorInvariant checks invariant 5: FAT1[c] = FAT2[c] after every
// mutation.
func TestMirrorInvariant(t *testing.T) {
	fat, dev := newTestFAT(t)
	c, err := fat.allocCluster()
	if err != nil {
		t.Fatalf("allocCluster: %v", err)
	}

	off := entryOffset(c)
	sectorIdx := off / SectorSize
	fat1Sector := uint32(fat.bpb.ReservedSectors) + sectorIdx
	fat2Sector := fat1Sector + uint32(fat.bpb.SectorsPerFAT)

	buf1 := make([]byte, SectorSize)
	buf2 := make([]byte, SectorSize)
	if err := dev.ReadSector(fat1Sector, buf1); err != nil {
		t.Fatalf("reading FAT1: %v", err)
	}
	if err := dev.ReadSector(fat2Sector, buf2); err != nil {
		t.Fatalf("reading FAT2: %v", err)
	}
	for i := range buf1 {
		if buf1[i] != buf2[i] {
			t.Fatalf("FAT1 and FAT2 diverge at byte %d: %#x != %#x", i, buf1[i], buf2[i])
		}
	}
}

func TestAllocClusterExhaustion(t *testing.T) {
	fat, _ := newTestFAT(t)
	count := 0
	for {
		if _, err := fat.allocCluster(); err != nil {
			break
		}
		count++
		if count > 100000 {
			t.Fatal("allocCluster never reported exhaustion")
		}
	}
	if count == 0 {
		t.Fatal("expected to allocate at least one cluster before exhaustion")
	}
}
