package timeline

import (
	"fmt"
	"sort"
	"time"

	"backend/internal/app/ds"
)

// Элемент итогового таймлайна после слияния сохранённых периодов с батчем
type timelineItem struct {
	opIndex int // -1 — период не затронут батчем
	start   *time.Time
	end     *time.Time
}

// ValidateAndNormalize сливает сохранённые периоды подписки с батчем операций
// и проверяет, что итоговый таймлайн покрыт без разрывов и пересечений.
// Пропущенные даты начала автозаполняются (prev.end + 1 день) и отражаются
// обратно в батч. Ошибки валидации собираются все сразу, без частичного
// применения. Батч только из удалений контролю непрерывности не подлежит
func ValidateAndNormalize(existing []ds.LicensePeriod, batch []PeriodOp) ([]PeriodOp, []FieldError, error) {
	norm := make([]PeriodOp, len(batch))
	copy(norm, batch)

	byID := make(map[uint]*ds.LicensePeriod, len(existing))
	for i := range existing {
		byID[existing[i].ID] = &existing[i]
	}

	deleted := make(map[uint]bool)
	updates := make(map[uint]int) // ID периода -> индекс операции
	onlyDeletes := true
	for i, op := range norm {
		switch op.Kind {
		case OpDelete:
			if byID[op.PeriodID] == nil {
				return nil, nil, &IntegrityError{PeriodID: op.PeriodID}
			}
			deleted[op.PeriodID] = true
		case OpUpdate:
			onlyDeletes = false
			if byID[op.PeriodID] == nil {
				return nil, nil, &IntegrityError{PeriodID: op.PeriodID}
			}
			updates[op.PeriodID] = i
		case OpCreate:
			onlyDeletes = false
		default:
			return nil, nil, fmt.Errorf("неизвестный вид операции: %q", op.Kind)
		}
	}
	if len(norm) == 0 || onlyDeletes {
		return norm, nil, nil
	}

	// Шаг 1: слияние — update по месту, delete выбрасываем, create в конец
	items := make([]timelineItem, 0, len(existing)+len(norm))
	for i := range existing {
		p := &existing[i]
		if deleted[p.ID] {
			continue
		}
		if opIdx, ok := updates[p.ID]; ok {
			items = append(items, timelineItem{opIndex: opIdx, start: norm[opIdx].StartDate, end: norm[opIdx].EndDate})
			continue
		}
		start := p.StartDate
		items = append(items, timelineItem{opIndex: -1, start: &start, end: p.EndDate})
	}
	for i, op := range norm {
		if op.Kind == OpCreate {
			items = append(items, timelineItem{opIndex: i, start: op.StartDate, end: op.EndDate})
		}
	}

	// Шаги 2-3: известные даты начала сортируем по start,
	// периоды без даты начала — по end и в хвост (их заполнит шаг 5)
	known := make([]timelineItem, 0, len(items))
	unknown := make([]timelineItem, 0)
	for _, it := range items {
		if it.start != nil {
			known = append(known, it)
		} else {
			unknown = append(unknown, it)
		}
	}
	sort.SliceStable(known, func(i, j int) bool {
		return known[i].start.Before(*known[j].start)
	})
	sort.SliceStable(unknown, func(i, j int) bool {
		if unknown[i].end == nil {
			return false
		}
		if unknown[j].end == nil {
			return true
		}
		return unknown[i].end.Before(*unknown[j].end)
	})
	ordered := append(known, unknown...)
	if len(ordered) == 0 {
		return norm, nil, nil
	}

	var errs []FieldError

	// Шаг 4: без якоря автозаполнение невозможно
	if ordered[0].start == nil {
		errs = append(errs, FieldError{
			OpIndex: ordered[0].opIndex,
			Field:   "start_date",
			Message: "первый период должен иметь явную дату начала",
		})
	}

	// Шаг 5: попарный проход
	var prev *timelineItem
	for idx := range ordered {
		curr := &ordered[idx]
		if prev != nil {
			switch {
			case prev.end == nil:
				// открытый период может быть только последним
				if prev.opIndex >= 0 {
					errs = append(errs, FieldError{OpIndex: prev.opIndex, Field: "end_date",
						Message: "период без даты окончания должен быть последним"})
				} else {
					errs = append(errs, FieldError{OpIndex: curr.opIndex, Field: "start_date",
						Message: "период без даты окончания должен быть последним"})
				}
			case curr.start == nil:
				// автозаполнение: следующий день после конца предыдущего
				filled := nextDay(*prev.end)
				curr.start = &filled
				if curr.opIndex >= 0 {
					norm[curr.opIndex].StartDate = &filled
				}
			default:
				want := nextDay(*prev.end)
				if !sameDate(*curr.start, want) {
					msg := fmt.Sprintf("период должен начинаться %s — разрыв или пересечение таймлайна",
						want.Format("2006-01-02"))
					if curr.opIndex >= 0 {
						errs = append(errs, FieldError{OpIndex: curr.opIndex, Field: "start_date", Message: msg})
					} else if prev.opIndex >= 0 {
						errs = append(errs, FieldError{OpIndex: prev.opIndex, Field: "end_date", Message: msg})
					} else {
						errs = append(errs, FieldError{OpIndex: -1, Field: "start_date", Message: msg})
					}
				}
			}
		}

		// дата окончания должна быть строго позже даты начала
		if curr.start != nil && curr.end != nil && !curr.end.After(*curr.start) {
			errs = append(errs, FieldError{OpIndex: curr.opIndex, Field: "end_date",
				Message: "дата окончания должна быть позже даты начала"})
		}

		prev = curr
	}

	if len(errs) > 0 {
		return nil, errs, nil
	}
	return norm, nil, nil
}

func nextDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
