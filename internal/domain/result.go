package domain

import "errors"

var (
	// ErrProfileNotFound возвращается, когда профиль отсутствует в репозитории.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrUpstream оборачивает ошибки внешних источников (репозиторий, геолокация).
	ErrUpstream = errors.New("upstream fetch failed")
	// ErrScoring возвращается при сбое фильтрации или оценки кандидатов.
	ErrScoring = errors.New("scoring failed")
)

// DiscoveryResult описывает результат одного вызова подбора: либо ранжированный список,
// либо ошибка с причиной. Частичных результатов не бывает.
type DiscoveryResult struct {
	RequestID string
	Profiles  []Profile
	Scores    []ProfileScore
	Err       error
}

// OK сообщает, завершился ли подбор успешно.
func (r DiscoveryResult) OK() bool { return r.Err == nil }

// Failed строит неуспешный результат.
func Failed(requestID string, err error) DiscoveryResult {
	return DiscoveryResult{RequestID: requestID, Err: err}
}

// Iter возвращает одноразовую последовательность профилей в порядке ранжирования.
// Повторный вызов возвращённой функции ничего не выдаёт.
func (r DiscoveryResult) Iter() func(yield func(Profile) bool) {
	consumed := false
	return func(yield func(Profile) bool) {
		if consumed {
			return
		}
		consumed = true
		for _, p := range r.Profiles {
			if !yield(p) {
				return
			}
		}
	}
}
