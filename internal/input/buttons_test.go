package input

import "testing"

func TestJustPressedOnlyOnEdge(t *testing.T) {
	b := NewButtons()
	b.Press(ActionSpawn)
	if !b.JustPressed(ActionSpawn) {
		t.Fatal("first frame of press is not an edge")
	}
	b.EndFrame()
	for i := 0; i < 5; i++ {
		if b.JustPressed(ActionSpawn) {
			t.Fatalf("held frame %d reported as edge", i)
		}
		if !b.Pressed(ActionSpawn) {
			t.Fatalf("held frame %d not pressed", i)
		}
		b.EndFrame()
	}
	b.Release(ActionSpawn)
	b.EndFrame()
	b.Press(ActionSpawn)
	if !b.JustPressed(ActionSpawn) {
		t.Fatal("press after release is not an edge")
	}
}

func TestTapLastsOneFrame(t *testing.T) {
	b := NewButtons()
	b.Tap(ActionSpawn)
	if !b.JustPressed(ActionSpawn) {
		t.Fatal("tap is not an edge")
	}
	b.EndFrame()
	if b.Pressed(ActionSpawn) {
		t.Fatal("tap still pressed on the next frame")
	}
	b.Tap(ActionSpawn)
	if !b.JustPressed(ActionSpawn) {
		t.Fatal("second tap is not an edge")
	}
}

func TestTapWhileHeldIsEdge(t *testing.T) {
	b := NewButtons()
	b.Press(ActionSpawn)
	b.EndFrame()
	if b.JustPressed(ActionSpawn) {
		t.Fatal("held action reported as an edge")
	}
	b.Tap(ActionSpawn)
	if !b.JustPressed(ActionSpawn) {
		t.Fatal("tap on a held action is not an edge")
	}
	b.EndFrame()
	if b.Pressed(ActionSpawn) {
		t.Fatal("tap did not release the action")
	}
}

func TestParseAction(t *testing.T) {
	for _, a := range []Action{ActionSpawn, ActionUp, ActionDown, ActionLeft, ActionRight} {
		got, err := ParseAction(a.String())
		if err != nil || got != a {
			t.Errorf("ParseAction(%q) = %v, %v", a.String(), got, err)
		}
	}
	if _, err := ParseAction("jump"); err == nil {
		t.Error("ParseAction(jump) succeeded")
	}
}
