package status

import "testing"

func TestIntangibilityEnableAndTryPierce(t *testing.T) {
	var in Intangibility
	if in.Enabled() {
		t.Fatalf("expected a fresh Intangibility to be disabled")
	}

	in.Enable(10, func(flags uint64) bool { return flags&1 != 0 })
	if !in.Enabled() {
		t.Errorf("expected Enable to set Enabled")
	}
	if !in.TryPierce(1) {
		t.Errorf("expected a hit matching the pierce rule to pierce")
	}
	if in.TryPierce(2) {
		t.Errorf("expected a hit not matching the pierce rule not to pierce")
	}
}

func TestIntangibilityTryPierceWithoutRuleNeverPierces(t *testing.T) {
	var in Intangibility
	in.Enable(10, nil)
	if in.TryPierce(0xFF) {
		t.Errorf("expected no rule to mean nothing pierces")
	}
}

func TestIntangibilityUpdateExpiresAndFiresDeactivateCallback(t *testing.T) {
	var in Intangibility
	fired := false
	in.AddDeactivateCallback(func() { fired = true })
	in.Enable(2, nil)

	if cbs := in.Update(false); cbs != nil {
		t.Fatalf("expected no callbacks before duration elapses")
	}
	cbs := in.Update(false)
	if in.Enabled() {
		t.Errorf("expected intangibility to deactivate once duration elapses")
	}
	if len(cbs) != 1 {
		t.Fatalf("expected exactly one deactivate callback, got %d", len(cbs))
	}
	cbs[0]()
	if !fired {
		t.Errorf("expected the deactivate callback to fire")
	}
}

func TestIntangibilityUpdateDoesNotTickWhileFrozen(t *testing.T) {
	var in Intangibility
	in.Enable(1, nil)
	in.Update(true)
	if !in.Enabled() {
		t.Errorf("expected a frozen Update not to tick duration down")
	}
}

func TestIntangibilityIndefiniteDurationNeverExpiresViaUpdate(t *testing.T) {
	var in Intangibility
	in.Enable(-1, nil)
	for i := 0; i < 100; i++ {
		in.Update(false)
	}
	if !in.Enabled() {
		t.Errorf("expected an indefinite duration not to expire")
	}
}

func TestIntangibilityDeactivateIsIdempotentWhenDisabled(t *testing.T) {
	var in Intangibility
	if cbs := in.Deactivate(); cbs != nil {
		t.Errorf("expected Deactivate on an already-disabled Intangibility to be a no-op")
	}
}
