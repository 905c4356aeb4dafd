package internal

import "testing"

func TestField(t *testing.T) {
	tests := []struct {
		f        Field
		reg, v   uint16
		wantSet  uint16
		wantMask uint16
	}{
		{f: Bit(0), reg: 0, v: 1, wantSet: 0x0001, wantMask: 0x0001},
		{f: Field{Shift: 1, Width: 3}, reg: 0xffff, v: 0b010, wantSet: 0xfff5, wantMask: 0x000e},
		{f: Field{Shift: 10, Width: 3}, reg: 0, v: 7, wantSet: 0x1c00, wantMask: 0x1c00},
		{f: Field{Shift: 0, Width: 16}, reg: 0x1234, v: 0xabcd, wantSet: 0xabcd, wantMask: 0xffff},
		// Values wider than the field are truncated.
		{f: Field{Shift: 14, Width: 2}, reg: 0, v: 0xff, wantSet: 0xc000, wantMask: 0xc000},
	}
	for _, tc := range tests {
		if got := tc.f.Mask(); got != tc.wantMask {
			t.Errorf("%+v mask got %#04x want %#04x", tc.f, got, tc.wantMask)
		}
		got := tc.f.Set(tc.reg, tc.v)
		if got != tc.wantSet {
			t.Errorf("%+v Set(%#04x,%#x) got %#04x want %#04x", tc.f, tc.reg, tc.v, got, tc.wantSet)
		}
		if back := tc.f.Get(got); back != tc.v&(tc.wantMask>>tc.f.Shift) {
			t.Errorf("%+v Get got %#x", tc.f, back)
		}
	}
	f := Field{Shift: 4, Width: 2}
	if r := f.SetBool(0, true); r != 0x30 || !f.IsSet(r) {
		t.Errorf("SetBool true got %#04x", r)
	}
	if r := f.SetBool(0xffff, false); r != 0xffcf || f.IsSet(r) {
		t.Errorf("SetBool false got %#04x", r)
	}
}

func TestBackoff(t *testing.T) {
	bo := NewBackoff(1, 4)
	want := []int64{1, 2, 4, 4}
	for i, w := range want {
		if int64(bo.Wait()) != w {
			t.Fatalf("miss %d: wait=%d want %d", i, bo.Wait(), w)
		}
		bo.Miss()
	}
	bo.Hit()
	if bo.Wait() != 1 {
		t.Fatal("Hit did not reset wait")
	}
}
