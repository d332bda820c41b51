package events

import "testing"

func TestBusDisabledByDefault(t *testing.T) {
	b := &Bus{}
	if b.Enabled() {
		t.Fatalf("zero-value Bus should be disabled")
	}
	fired := false
	b.Subscribe(func(Event) { fired = true })
	b.Fire(Event{Kind: Update})
	if fired {
		t.Fatalf("Fire should no-op while disabled")
	}
}

func TestBusFiresInSubscriptionOrder(t *testing.T) {
	b := &Bus{}
	b.SetEnabled(true)
	var order []int
	b.Subscribe(func(Event) { order = append(order, 1) })
	b.Subscribe(func(Event) { order = append(order, 2) })
	b.Subscribe(func(Event) { order = append(order, 3) })
	b.Fire(Event{Kind: Add})
	want := []int{1, 2, 3}
	for i, v := range want {
		if order[i] != v {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestEventCarriesKeys(t *testing.T) {
	b := &Bus{}
	b.SetEnabled(true)
	var got Event
	b.Subscribe(func(e Event) { got = e })
	b.Fire(Event{Kind: Remove, RowKeys: []any{"r1"}, ColKeys: []any{"c1"}})
	if got.Kind != Remove {
		t.Fatalf("Kind = %v, want Remove", got.Kind)
	}
	if len(got.RowKeys) != 1 || got.RowKeys[0] != "r1" {
		t.Fatalf("RowKeys = %v", got.RowKeys)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{Add: "ADD", Remove: "REMOVE", Update: "UPDATE"}
	for k, want := range cases {
		if k.String() != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", k, k.String(), want)
		}
	}
}
