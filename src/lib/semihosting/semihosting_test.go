package semihosting

import "testing"

func TestRecorderCapturesExit(t *testing.T) {
	r := &Recorder{Ticks: 42}
	prev := SetHost(r)
	defer SetHost(prev)

	if _, ok := r.Last(); ok {
		t.Errorf("expected no exits recorded yet")
	}
	Exit(3)
	Abort(SemihostingStopInternalError, 7)

	if len(r.Exits) != 2 {
		t.Fatalf("expected 2 exits but got %d", len(r.Exits))
	}
	if r.Exits[0].Reason != SemihostingStopApplicationExit || r.Exits[0].Subcode != 3 {
		t.Errorf("bad first exit: %+v", r.Exits[0])
	}
	last, _ := r.Last()
	if last.Reason != SemihostingStopInternalError || last.Subcode != 7 {
		t.Errorf("bad last exit: %+v", last)
	}
	if c := Clock(); c != 42 {
		t.Errorf("expected clock of 42 but got %d", c)
	}
}
