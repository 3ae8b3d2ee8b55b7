package discovery

import "github.com/GoSteelers88/PawsomePals-sub003/internal/domain"

// FilterCandidates убирает из пула сам профиль, профили того же владельца и
// исключённые профили и владельцев. Порядок пула сохраняется.
func FilterCandidates(current domain.Profile, pool []domain.Profile, prefs domain.DiscoveryPreferences) []domain.Profile {
	out := make([]domain.Profile, 0, len(pool))
	for _, candidate := range pool {
		switch {
		case candidate.ID == current.ID:
		case candidate.OwnerID == current.OwnerID:
		case prefs.IsProfileExcluded(candidate.ID):
		case prefs.IsOwnerExcluded(candidate.OwnerID):
		default:
			out = append(out, candidate)
		}
	}
	return out
}
