package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func NextActionKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:nextaction:%s", jobID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
