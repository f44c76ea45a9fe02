package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func threePackages() ProposalContent {
	return ProposalContent{
		Title: "Сайт под ключ",
		Packages: []Package{
			{Name: "Basic", Price: 100},
			{Name: "Standard", Price: 200},
			{Name: "Premium", Price: 300},
		},
	}
}

func TestPackagePrice_ExactNameWins(t *testing.T) {
	content := threePackages()
	assert.Equal(t, float64(300), content.PackagePrice("Premium", 999))
	assert.Equal(t, float64(100), content.PackagePrice("  basic ", 999))
}

func TestPackagePrice_FallsBackToStandardIndex(t *testing.T) {
	content := threePackages()
	assert.Equal(t, float64(200), content.PackagePrice("Enterprise", 999))
	assert.Equal(t, float64(200), content.PackagePrice("", 999))
}

func TestPackagePrice_FallsBackToStoredAmount(t *testing.T) {
	content := ProposalContent{Packages: []Package{{Name: "Basic", Price: 100}}}
	assert.Equal(t, float64(150), content.PackagePrice("Enterprise", 150))
}

func TestPackagePrice_Zero(t *testing.T) {
	content := ProposalContent{}
	assert.Equal(t, float64(0), content.PackagePrice("Any", 0))
}

func TestDefaultPrice(t *testing.T) {
	assert.Equal(t, float64(200), threePackages().DefaultPrice())

	single := ProposalContent{Packages: []Package{{Name: "Basic", Price: 100}}}
	assert.Equal(t, float64(100), single.DefaultPrice())

	assert.Equal(t, float64(0), ProposalContent{}.DefaultPrice())
}

func TestContentIsEmpty(t *testing.T) {
	assert.True(t, ProposalContent{}.IsEmpty())
	assert.True(t, ProposalContent{Title: "x"}.IsEmpty())
	assert.True(t, ProposalContent{Title: "  ", Packages: []Package{{}}}.IsEmpty())
	assert.False(t, threePackages().IsEmpty())
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{ProposalStatusDraft, ProposalStatusSent},
		{ProposalStatusRejected, ProposalStatusSent},
		{ProposalStatusSent, ProposalStatusViewed},
		{ProposalStatusSent, ProposalStatusAccepted},
		{ProposalStatusViewed, ProposalStatusAccepted},
		{ProposalStatusSent, ProposalStatusRejected},
		{ProposalStatusViewed, ProposalStatusRejected},
		{ProposalStatusSent, ProposalStatusExpired},
		{ProposalStatusViewed, ProposalStatusExpired},
	}
	for _, edge := range allowed {
		assert.True(t, CanTransition(edge[0], edge[1]), "%s -> %s", edge[0], edge[1])
	}

	forbidden := [][2]string{
		{ProposalStatusDraft, ProposalStatusViewed},
		{ProposalStatusDraft, ProposalStatusAccepted},
		{ProposalStatusAccepted, ProposalStatusRejected},
		{ProposalStatusRejected, ProposalStatusAccepted},
		{ProposalStatusExpired, ProposalStatusSent},
		{ProposalStatusAccepted, ProposalStatusSent},
		{ProposalStatusDraft, ProposalStatusExpired},
	}
	for _, edge := range forbidden {
		assert.False(t, CanTransition(edge[0], edge[1]), "%s -> %s", edge[0], edge[1])
	}
}

func TestTransitionSources_ReturnsCopy(t *testing.T) {
	first := TransitionSources(ProposalStatusExpired)
	first[0] = "tampered"
	assert.NotContains(t, TransitionSources(ProposalStatusExpired), "tampered")

	assert.Nil(t, TransitionSources(ProposalStatusDraft))
}

func TestIsExpiredAt(t *testing.T) {
	now := time.Now()

	p := &Proposal{}
	assert.False(t, p.IsExpiredAt(now), "без срока действия предложение не истекает")

	past := now.Add(-time.Minute)
	p.ValidUntil = &past
	assert.True(t, p.IsExpiredAt(now))

	future := now.Add(time.Minute)
	p.ValidUntil = &future
	assert.False(t, p.IsExpiredAt(now))
}

func TestPlanGenerationLimit(t *testing.T) {
	assert.Equal(t, 3, PlanGenerationLimit(PlanFree))
	assert.Equal(t, 20, PlanGenerationLimit(PlanStarter))
	assert.True(t, IsUnlimited(PlanGenerationLimit(PlanPro)))
	assert.True(t, IsUnlimited(PlanGenerationLimit(PlanAgency)))
	assert.Equal(t, 3, PlanGenerationLimit("unknown"))
}

func TestUsagePeriod(t *testing.T) {
	moment := time.Date(2026, 8, 28, 23, 59, 0, 0, time.FixedZone("MSK", 3*3600))
	assert.Equal(t, "2026-08", UsagePeriod(moment))

	// Ключ периода считается по UTC, границу месяца не сдвигает таймзона.
	edge := time.Date(2026, 9, 1, 1, 30, 0, 0, time.FixedZone("MSK", 3*3600))
	assert.Equal(t, "2026-08", UsagePeriod(edge))
}

func TestInvoiceIsOverdueAt(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	inv := &Invoice{Status: InvoiceStatusSent, DueDate: &past}
	assert.True(t, inv.IsOverdueAt(now))

	inv.Status = InvoiceStatusPaid
	assert.False(t, inv.IsOverdueAt(now))

	inv = &Invoice{Status: InvoiceStatusSent}
	assert.False(t, inv.IsOverdueAt(now))
}
