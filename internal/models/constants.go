package models

// ProposalStatus константы статусов предложений.
const (
	ProposalStatusDraft    = "draft"
	ProposalStatusSent     = "sent"
	ProposalStatusViewed   = "viewed"
	ProposalStatusAccepted = "accepted"
	ProposalStatusRejected = "rejected"
	ProposalStatusExpired  = "expired"
)

// InvoiceStatus константы статусов счетов.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Plan тарифные планы подписки.
const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanPro     = "pro"
	PlanAgency  = "agency"
)

// ValidProposalStatuses список валидных статусов предложений.
var ValidProposalStatuses = map[string]struct{}{
	ProposalStatusDraft:    {},
	ProposalStatusSent:     {},
	ProposalStatusViewed:   {},
	ProposalStatusAccepted: {},
	ProposalStatusRejected: {},
	ProposalStatusExpired:  {},
}

// ValidInvoiceStatuses список валидных статусов счетов.
var ValidInvoiceStatuses = map[string]struct{}{
	InvoiceStatusDraft:     {},
	InvoiceStatusSent:      {},
	InvoiceStatusPaid:      {},
	InvoiceStatusOverdue:   {},
	InvoiceStatusCancelled: {},
}

// ValidPlans список валидных тарифов.
var ValidPlans = map[string]struct{}{
	PlanFree:    {},
	PlanStarter: {},
	PlanPro:     {},
	PlanAgency:  {},
}

// proposalTransitions — закрытая таблица переходов статусов.
// Любой переход, которого здесь нет, запрещён; сервер никогда не доверяет
// статусу, присланному клиентом.
var proposalTransitions = map[string][]string{
	ProposalStatusSent:     {ProposalStatusDraft, ProposalStatusRejected},
	ProposalStatusViewed:   {ProposalStatusSent},
	ProposalStatusAccepted: {ProposalStatusSent, ProposalStatusViewed},
	ProposalStatusRejected: {ProposalStatusSent, ProposalStatusViewed},
	ProposalStatusExpired:  {ProposalStatusSent, ProposalStatusViewed},
}

// TransitionSources возвращает допустимые исходные статусы для перехода в target.
func TransitionSources(target string) []string {
	sources, ok := proposalTransitions[target]
	if !ok {
		return nil
	}
	out := make([]string, len(sources))
	copy(out, sources)
	return out
}

// CanTransition проверяет, существует ли ребро from -> to в таблице переходов.
func CanTransition(from, to string) bool {
	for _, src := range proposalTransitions[to] {
		if src == from {
			return true
		}
	}
	return false
}

// EditableStatuses — статусы, в которых владелец может менять содержимое
// предложения. После accepted и expired контент заморожен.
var EditableStatuses = map[string]struct{}{
	ProposalStatusDraft:    {},
	ProposalStatusViewed:   {},
	ProposalStatusRejected: {},
}

// PlanGenerationLimit возвращает месячный лимит генераций для тарифа.
// Для pro и agency лимит фактически не ограничен.
func PlanGenerationLimit(plan string) int {
	switch plan {
	case PlanFree:
		return 3
	case PlanStarter:
		return 20
	case PlanPro, PlanAgency:
		return unlimitedGenerations
	default:
		return 3
	}
}

const unlimitedGenerations = 1 << 30

// IsUnlimited сообщает, означает ли лимит «без ограничений».
func IsUnlimited(limit int) bool {
	return limit >= unlimitedGenerations
}
