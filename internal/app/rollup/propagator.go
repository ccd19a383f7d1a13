package rollup

import (
	"fmt"
	"time"

	"backend/internal/app/ds"
	"backend/internal/app/money"
	"backend/internal/app/pricing"
)

// Триггеры каскада пересчёта
type Trigger int

const (
	TriggerEmployeeLicense Trigger = iota // изменились лицензии сотрудников подписки
	TriggerLicensePeriod                  // изменились периоды подписки
	TriggerMembership                     // изменился состав подписок контракта
)

// MutationEvent описывает мутацию, после которой нужен пересчёт.
// SubscriptionID обязателен для первых двух триггеров, ContractID — для
// TriggerMembership (и подставляется автоматически, если подписка привязана)
type MutationEvent struct {
	Trigger        Trigger
	SubscriptionID uint
	ContractID     uint
}

// Source — доступ на чтение к зафиксированному состоянию графа сущностей.
// Реализуется репозиторием внутри той же транзакции, что и мутация
type Source interface {
	PeriodsBySubscription(subscriptionID uint) ([]ds.LicensePeriod, error)
	EmployeeLicensesBySubscription(subscriptionID uint) ([]ds.EmployeeLicense, error)
	SubscriptionByID(subscriptionID uint) (*ds.Subscription, error)
	SubscriptionsByContract(contractID uint) ([]ds.Subscription, error)
	ContractByID(contractID uint) (*ds.Contract, error)
}

// Result — пересчитанные сущности, которые нужно записать обратно
type Result struct {
	Periods      []ds.LicensePeriod
	Subscription *ds.Subscription
	Contract     *ds.Contract
}

// Propagator пересчитывает вычисляемые поля снизу вверх:
// период -> подписка -> контракт. Пересчёт идемпотентен и не падает
// ни на каком достижимом состоянии графа
type Propagator struct {
	src Source
}

func New(src Source) *Propagator {
	return &Propagator{src: src}
}

// ApplyAndRecompute запускает каскад для события ev и возвращает все
// пересчитанные сущности. Вызывается строго после применения мутации,
// внутри той же транзакции
func (p *Propagator) ApplyAndRecompute(ev MutationEvent) (*Result, error) {
	res := &Result{}

	switch ev.Trigger {
	case TriggerEmployeeLicense:
		if err := p.recomputePeriods(ev.SubscriptionID, res); err != nil {
			return nil, err
		}
		fallthrough
	case TriggerLicensePeriod:
		contractID, err := p.recomputeSubscription(ev.SubscriptionID, res)
		if err != nil {
			return nil, err
		}
		if contractID == 0 {
			return res, nil
		}
		ev.ContractID = contractID
		fallthrough
	case TriggerMembership:
		if ev.ContractID == 0 {
			return res, nil
		}
		if err := p.recomputeContract(ev.ContractID, res); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("неизвестный триггер пересчёта: %d", ev.Trigger)
	}

	return res, nil
}

// Шаг 1: пересчёт стоимости каждого периода подписки — число активных
// пользователей могло измениться для любого из них
func (p *Propagator) recomputePeriods(subscriptionID uint, res *Result) error {
	periods, err := p.src.PeriodsBySubscription(subscriptionID)
	if err != nil {
		return err
	}
	licenses, err := p.src.EmployeeLicensesBySubscription(subscriptionID)
	if err != nil {
		return err
	}

	for i := range periods {
		count := pricing.ActiveUserCount(periods[i], licenses)
		periods[i].SetCalculatedTotal(pricing.CalculateTotal(periods[i], count))
	}
	res.Periods = periods
	return nil
}

// Шаг 2: пересчёт дат и суммы подписки по её периодам.
// Возвращает ID контракта, если подписка привязана и нужен шаг 3
func (p *Propagator) recomputeSubscription(subscriptionID uint, res *Result) (uint, error) {
	sub, err := p.src.SubscriptionByID(subscriptionID)
	if err != nil {
		return 0, err
	}

	// Периоды берём из шага 1, если он был, иначе пересчитываем заново
	periods := res.Periods
	if periods == nil {
		if err := p.recomputePeriods(subscriptionID, res); err != nil {
			return 0, err
		}
		periods = res.Periods
	}

	sub.StartDate, sub.EndDate = spanOverPeriods(periods)

	totals := make([]money.Money, len(periods))
	for i := range periods {
		totals[i] = periods[i].CalculatedTotal()
	}
	total, err := money.Sum(totals, sub.TotalCurrency)
	if err != nil {
		return 0, err
	}
	sub.SetTotal(total)

	res.Subscription = sub
	if sub.ContractID != nil {
		return *sub.ContractID, nil
	}
	return 0, nil
}

// Шаг 3: пересчёт дат и суммы контракта по оставшимся подпискам.
// Контракт без подписок получает пустые даты и нулевую сумму
func (p *Propagator) recomputeContract(contractID uint, res *Result) error {
	contract, err := p.src.ContractByID(contractID)
	if err != nil {
		return err
	}
	subs, err := p.src.SubscriptionsByContract(contractID)
	if err != nil {
		return err
	}

	// Подписка из шага 2 уже пересчитана — подменяем её свежей копией
	if res.Subscription != nil {
		for i := range subs {
			if subs[i].ID == res.Subscription.ID {
				subs[i] = *res.Subscription
			}
		}
	}

	contract.StartDate, contract.EndDate = spanOverSubscriptions(subs)

	totals := make([]money.Money, 0, len(subs))
	for i := range subs {
		totals = append(totals, subs[i].Total())
	}
	total, err := money.Sum(totals, contract.TotalCurrency)
	if err != nil {
		return err
	}
	contract.SetTotal(total)

	res.Contract = contract
	return nil
}

// spanOverPeriods: начало — min по периодам, конец — max, причём период
// без даты окончания делает открытой всю подписку
func spanOverPeriods(periods []ds.LicensePeriod) (*time.Time, *time.Time) {
	if len(periods) == 0 {
		return nil, nil
	}

	start := periods[0].StartDate
	openEnded := false
	var end time.Time
	for i := range periods {
		if periods[i].StartDate.Before(start) {
			start = periods[i].StartDate
		}
		if periods[i].EndDate == nil {
			openEnded = true
		} else if periods[i].EndDate.After(end) {
			end = *periods[i].EndDate
		}
	}

	s := start
	if openEnded {
		return &s, nil
	}
	e := end
	return &s, &e
}

// spanOverSubscriptions агрегирует даты подписок так же, как подписка
// агрегирует периоды. Подписка вовсе без дат (нет периодов) не участвует
func spanOverSubscriptions(subs []ds.Subscription) (*time.Time, *time.Time) {
	var start, end *time.Time
	openEnded := false
	for i := range subs {
		if subs[i].StartDate == nil && subs[i].EndDate == nil {
			continue
		}
		if subs[i].StartDate != nil && (start == nil || subs[i].StartDate.Before(*start)) {
			s := *subs[i].StartDate
			start = &s
		}
		if subs[i].EndDate == nil {
			openEnded = true
		} else if end == nil || subs[i].EndDate.After(*end) {
			e := *subs[i].EndDate
			end = &e
		}
	}
	if openEnded {
		return start, nil
	}
	return start, end
}
