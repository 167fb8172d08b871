package resultlog

import (
	"testing"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidate_Order(t *testing.T) {
	l := New()
	l.Info("WA", "expected-positive-increase", "forecast skipped")
	l.Warning("NY", "checkers", "Missing checker initials")
	l.Error("NY", "total", "first")
	l.Error("CA", "total", "second")
	l.Internal("TX", "death-rate", "panic: boom")
	l.Error("NY", "death-rate", "third")

	got := l.Consolidate()

	want := []domain.Finding{
		{State: "TX", Severity: domain.SeverityInternal, Check: "death-rate", Message: "panic: boom"},
		{State: "CA", Severity: domain.SeverityError, Check: "total", Message: "second"},
		{State: "NY", Severity: domain.SeverityError, Check: "total", Message: "first"},
		{State: "NY", Severity: domain.SeverityError, Check: "death-rate", Message: "third"},
		{State: "NY", Severity: domain.SeverityWarning, Check: "checkers", Message: "Missing checker initials"},
		{State: "WA", Severity: domain.SeverityInfo, Check: "expected-positive-increase", Message: "forecast skipped"},
	}
	if diff := cmp.Diff(want, got.Findings); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[domain.Severity]int{
		domain.SeverityInternal: 1,
		domain.SeverityError:    3,
		domain.SeverityWarning:  1,
		domain.SeverityInfo:     1,
	}, got.Counts)
	assert.True(t, got.HasErrors())
	assert.Equal(t, 6, got.Total())
	assert.Equal(t, "1 internal, 3 errors, 1 warnings, 1 info", got.Summary())
}

func TestConsolidate_KeepsDuplicates(t *testing.T) {
	l := New()
	l.Error("NY", "total", "same")
	l.Error("NY", "total", "same")
	assert.Len(t, l.Consolidate().Findings, 2)
	assert.Equal(t, 2, l.Len())
}

func TestConsolidate_DoesNotMutateLog(t *testing.T) {
	l := New()
	l.Info("WA", "x", "a")
	l.Error("AK", "x", "b")
	_ = l.Consolidate()

	l.Warning("CA", "x", "c")
	again := l.Consolidate()
	require.Len(t, again.Findings, 3)
	assert.Equal(t, "AK", again.Findings[0].State)
}

func TestReport_HasErrors(t *testing.T) {
	l := New()
	assert.False(t, l.Consolidate().HasErrors())

	l.Warning("NY", "checkers", "Missing checker initials")
	l.Info("NY", "x", "y")
	assert.False(t, l.Consolidate().HasErrors())

	l.Internal("NY", "total", "fault")
	assert.True(t, l.Consolidate().HasErrors())
}

func TestReport_ByState(t *testing.T) {
	l := New()
	l.Warning("NY", "a", "1")
	l.Error("WA", "b", "2")
	l.Error("NY", "c", "3")

	groups := l.Consolidate().ByState()
	require.Len(t, groups, 2)
	assert.Equal(t, "NY", groups[0].State)
	require.Len(t, groups[0].Findings, 2)
	assert.Equal(t, "3", groups[0].Findings[0].Message)
	assert.Equal(t, "WA", groups[1].State)
}

func TestConsolidate_EmptyHasZeroCounts(t *testing.T) {
	r := New().Consolidate()
	assert.Empty(t, r.Findings)
	for _, s := range domain.Severities {
		assert.Equal(t, 0, r.Counts[s])
	}
}
