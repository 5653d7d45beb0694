package store

import "torresegura/internal/models"

var transitionMap = map[string][]string{
	"scan":      {models.VisitPending},
	"verify":    {models.VisitPending, models.VisitScanned},
	"mark_exit": {models.VisitScanned, models.VisitVerified},
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}
