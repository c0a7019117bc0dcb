package points

import "testing"

func TestNormalizeAction(t *testing.T) {
	t.Parallel()

	if got := NormalizeAction(" Like "); got != ActionLike {
		t.Fatalf("unexpected normalized action: %q", got)
	}
	if got := NormalizeAction("download"); got != "" {
		t.Fatalf("expected unknown action to normalize to empty, got %q", got)
	}
}

func TestRuleFor(t *testing.T) {
	t.Parallel()

	rule, ok := RuleFor(ActionShare)
	if !ok {
		t.Fatalf("expected share rule")
	}
	if rule.Points != 10 || rule.Repeatable {
		t.Fatalf("unexpected share rule: %+v", rule)
	}

	rule, ok = RuleFor(ActionView)
	if !ok || !rule.Repeatable {
		t.Fatalf("expected repeatable view rule, got %+v (%v)", rule, ok)
	}

	if _, ok := RuleFor("bogus"); ok {
		t.Fatalf("did not expect rule for unknown action")
	}
}

func TestProgressFor_Ladder(t *testing.T) {
	t.Parallel()

	p := ProgressFor(0)
	if p.Level.Name != "newcomer" {
		t.Fatalf("expected newcomer at 0 points, got %q", p.Level.Name)
	}
	if p.NextLevel == nil || p.NextLevel.Name != "reader" {
		t.Fatalf("expected reader as next level, got %+v", p.NextLevel)
	}

	p = ProgressFor(125)
	if p.Level.Name != "reader" {
		t.Fatalf("expected reader at 125 points, got %q", p.Level.Name)
	}
	if p.IntoLevel != 75 || p.ToNextLevel != 75 {
		t.Fatalf("unexpected progress split: into=%d to_next=%d", p.IntoLevel, p.ToNextLevel)
	}
	if p.PercentToNext != 50 {
		t.Fatalf("unexpected percent to next: %f", p.PercentToNext)
	}
}

func TestProgressFor_TopLevel(t *testing.T) {
	t.Parallel()

	p := ProgressFor(10_000)
	if p.Level.Name != "ambassador" {
		t.Fatalf("expected top level, got %q", p.Level.Name)
	}
	if p.NextLevel != nil {
		t.Fatalf("expected no next level at the top, got %+v", p.NextLevel)
	}
	if p.PercentToNext != 100 {
		t.Fatalf("expected 100 percent at the top, got %f", p.PercentToNext)
	}
}

func TestProgressFor_NegativeClampsToZero(t *testing.T) {
	t.Parallel()

	p := ProgressFor(-10)
	if p.Lifetime != 0 || p.Level.Name != "newcomer" {
		t.Fatalf("expected negative totals to clamp to zero, got %+v", p)
	}
}
