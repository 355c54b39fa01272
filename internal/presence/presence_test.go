package presence

import "testing"

func TestJoinDedupsByConnection(t *testing.T) {
	r := NewRegistry()

	e, joined := r.Join("c1", Identity{Name: "ann", Style: Style{Color: "#f00"}})
	if !joined {
		t.Fatal("first join reported false")
	}
	if e.ID != "c1" || e.Name != "ann" || e.Color != "#f00" {
		t.Errorf("entry = %+v", e)
	}

	if _, joined := r.Join("c1", Identity{Name: "renamed"}); joined {
		t.Error("duplicate join reported true")
	}
	if got := r.Roster(); len(got) != 1 || got[0].Name != "ann" {
		t.Errorf("roster after duplicate join = %+v", got)
	}
}

func TestSameNameDifferentConnections(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", Identity{Name: "sam"})
	r.Join("c2", Identity{Name: "sam"})

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	r.Leave("c1")
	if !r.Contains("c2") {
		t.Error("leaving c1 removed c2 with the same name")
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", Identity{})

	e, ok := r.Leave("c1")
	if !ok || e.ID != "c1" || e.Name != anonymous {
		t.Fatalf("Leave = %+v, %v", e, ok)
	}
	if _, ok := r.Leave("c1"); ok {
		t.Error("second Leave reported true")
	}
	if _, ok := r.Leave("never-joined"); ok {
		t.Error("Leave of unknown connection reported true")
	}
}

func TestRosterKeepsJoinOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"c1", "c2", "c3"} {
		r.Join(id, Identity{Name: id})
	}
	r.Leave("c2")
	r.Join("c2", Identity{Name: "back"})

	var ids []string
	for _, e := range r.Roster() {
		ids = append(ids, e.ID)
	}
	if len(ids) != 3 || ids[0] != "c1" || ids[1] != "c3" || ids[2] != "c2" {
		t.Errorf("roster order = %v", ids)
	}
}

func TestEmptyRosterIsNotNil(t *testing.T) {
	if NewRegistry().Roster() == nil {
		t.Error("Roster() returned nil")
	}
}

func TestJoinRejectsEmptyConnection(t *testing.T) {
	if _, ok := NewRegistry().Join("", Identity{Name: "x"}); ok {
		t.Error("join with empty connection id succeeded")
	}
}
