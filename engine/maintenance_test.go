package engine

import "testing"

func TestMaintenance_ReportDoesNotMutateEngine(t *testing.T) {
	e := newTestEngine(t)
	id, _ := NewDocID()
	if _, err := e.BindPath("/a", id); err != nil {
		t.Fatalf("BindPath: %v", err)
	}

	before, err := e.stream.Length()
	if err != nil {
		t.Fatalf("Length: %v", err)
	}

	m := NewMaintenance(e)
	m.report()

	after, err := e.stream.Length()
	if err != nil {
		t.Fatalf("Length: %v", err)
	}
	if after != before {
		t.Fatalf("report() mutated stream length: %d -> %d", before, after)
	}
}

func TestMaintenance_ScheduleCompactionAcceptsStandardCronSyntax(t *testing.T) {
	e := newTestEngine(t)
	m := NewMaintenance(e)
	if err := m.ScheduleCompaction("@every 1h"); err != nil {
		t.Fatalf("ScheduleCompaction: %v", err)
	}
	m.Stop()
}
