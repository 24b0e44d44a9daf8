package fat16

import "testing"

func TestParseBPBValid(t *testing.T) {
	dev := NewMemDevice(2880)
	if err := FormatForTest(dev); err != nil {
		t.Fatalf("FormatForTest: %v", err)
	}
	sector := make([]byte, SectorSize)
	if err := dev.ReadSector(0, sector); err != nil {
		t.Fatalf("ReadSector: %v", err)
	}

	bpb, err := ParseBPB(sector)
	if err != nil {
		t.Fatalf("ParseBPB: %v", err)
	}
	if bpb.BytesPerSector != SectorSize {
		t.Errorf("BytesPerSector = %d, want %d", bpb.BytesPerSector, SectorSize)
	}
	if bpb.NumFATs != 2 {
		t.Errorf("NumFATs = %d, want 2", bpb.NumFATs)
	}
	if bpb.TotalSectors != 2880 {
		t.Errorf("TotalSectors = %d, want 2880", bpb.TotalSectors)
	}
}

func TestParseBPBRejectsBadSignature(t *testing.T) {
	dev := NewMemDevice(2880)
	if err := FormatForTest(dev); err != nil {
		t.Fatalf("FormatForTest: %v", err)
	}
	sector := make([]byte, SectorSize)
	dev.ReadSector(0, sector)
	sector[510] = 0x00
	if _, err := ParseBPB(sector); err == nil {
		t.Error("expected error for bad boot sector signature")
	}
}

func TestParseBPBRejectsWrongLength(t *testing.T) {
	if _, err := ParseBPB(make([]byte, 100)); err == nil {
		t.Error("expected error for wrong sector length")
	}
}

func TestDeriveGeometry(t *testing.T) {
	bpb := BPB{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   1,
		NumFATs:           2,
		RootEntries:       224,
		SectorsPerFAT:     9,
		TotalSectors:      2880,
	}
	geom := DeriveGeometry(bpb)
	if geom.RootStart != 19 {
		t.Errorf("RootStart = %d, want 19", geom.RootStart)
	}
	if geom.RootSectors != 14 {
		t.Errorf("RootSectors = %d, want 14", geom.RootSectors)
	}
	if geom.FirstDataSect != 33 {
		t.Errorf("FirstDataSect = %d, want 33", geom.FirstDataSect)
	}
	if got := geom.ClusterToSector(2, bpb.SectorsPerCluster); got != 33 {
		t.Errorf("ClusterToSector(2) = %d, want 33", got)
	}
	if got := geom.ClusterToSector(3, bpb.SectorsPerCluster); got != 34 {
		t.Errorf("ClusterToSector(3) = %d, want 34", got)
	}
}
